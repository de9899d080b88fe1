package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFragmentsMixedFences(t *testing.T) {
	body := "What if the issue has multiple code blocks?\r\n" +
		"Like this?\r\n`\r\nimport SampleClass\r\nobj = SampleClass()\r\n`\r\n" +
		"Now with double quotes\r\n``\r\nimport SampleClass\r\nobj1 = SampleClass()\r\n``\r\n" +
		"Python can be specified now\r\n```python\r\nimport SampleClass\r\nobj2 = SampleClass()\r\n```\r\n"

	fragments := ExtractFragments(body)
	require.Len(t, fragments, 3)

	assert.Equal(t, "", fragments[0].Language)
	assert.Equal(t, "import SampleClass\r\nobj = SampleClass()\n", fragments[0].Code)
	assert.Equal(t, "", fragments[1].Language)
	assert.Contains(t, fragments[1].Code, "obj1 = SampleClass()")
	assert.Equal(t, "python", fragments[2].Language)
	assert.Contains(t, fragments[2].Code, "obj2 = SampleClass()")
}

func TestExtractFragmentsIgnoresInlineCode(t *testing.T) {
	body := "Calling `foo()` crashes, see below.\n\n```py\nfoo()\n```\n"

	fragments := ExtractFragments(body)
	require.Len(t, fragments, 1)
	assert.Equal(t, "py", fragments[0].Language)
	assert.Equal(t, "foo()\n", fragments[0].Code)
}

func TestExtractFragmentsSkipsBlankBlocks(t *testing.T) {
	assert.Empty(t, ExtractFragments("```\n   \n```\n"))
	assert.Empty(t, ExtractFragments("no code here"))
}

func TestParse(t *testing.T) {
	q := Parse("issue-1.md", "Crash on start\n```Python\nimport alpha\n```")
	assert.Equal(t, "issue-1.md", q.Source)
	assert.Equal(t, "Crash on start\n```Python\nimport alpha\n```", q.Text)
	require.Len(t, q.Fragments, 1)
	assert.Equal(t, "python", q.Fragments[0].Language)
	assert.True(t, q.HasCode())

	assert.False(t, Parse("stdin", "just words").HasCode())
}

func TestExtractFragmentsInlineCodeEndingLine(t *testing.T) {
	body := "Calling `load()`\nfails like this:\n\n```python\nfrom app import load\nload(path)\n```\n"

	fragments := ExtractFragments(body)
	require.Len(t, fragments, 1)
	assert.Equal(t, "python", fragments[0].Language)
	assert.Equal(t, "from app import load\nload(path)\n", fragments[0].Code)
}

func TestExtractFragmentsIndentedFence(t *testing.T) {
	body := "Steps:\n  ```\n  run()\n  ```\n"

	fragments := ExtractFragments(body)
	require.Len(t, fragments, 1)
	assert.Equal(t, "  run()\n", fragments[0].Code)
}
