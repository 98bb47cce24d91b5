package interp_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"filescript/internal/embedding"
	"filescript/internal/extract"
	"filescript/internal/index"
	"filescript/internal/interp"
)

func run(t *testing.T, source, root string) string {
	t.Helper()
	out, err := interp.Execute(source, root, root)
	require.NoError(t, err)
	return out
}

func runErr(t *testing.T, source, root string) (string, error) {
	t.Helper()
	out, err := interp.Execute(source, root, root)
	require.Error(t, err)
	return out, err
}

func TestPrintRendering(t *testing.T) {
	root := t.TempDir()
	source := strings.Join([]string{
		"x = 1",
		"print(x)",
		"print([2, 3, 4])",
		"print('bare string')",
		"print(['a', 'b'])",
		"print(true, false)",
		"print(1 + 2, 'and', [1])",
	}, "\n")
	out := run(t, source, root)
	require.Equal(t, strings.Join([]string{
		"1",
		"[2, 3, 4]",
		"bare string",
		"['a', 'b']",
		"True False",
		"3 and [1]",
	}, "\n")+"\n", out)
}

func TestPrintedPathsAreRelativeToCwd(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "single.txt"), []byte("alpha\n"), 0o644))
	source := strings.Join([]string{
		"d = Directory('.')",
		"f = File('single.txt')",
		"print(d)",
		"print(f)",
	}, "\n")
	require.Equal(t, ".\nsingle.txt\n", run(t, source, root))
}

func TestListRangeExpansion(t *testing.T) {
	root := t.TempDir()
	require.Equal(t, "[1, 5, 6, 7, 8, 12]\n", run(t, "print([1, 5:8, 12])", root))
	require.Equal(t, "[5, 4, 3]\n", run(t, "print([5:3])", root))
	require.Equal(t, "[2, 2]\n", run(t, "print([2:2, 2])", root))
}

func TestArithmetic(t *testing.T) {
	root := t.TempDir()
	out := run(t, "print(7 / 2, 7 % 3, -4 * 2, 'a' + 'b', [1] + [2])", root)
	require.Equal(t, "3 1 -8 ab [1, 2]\n", out)
}

func TestDivisionByZero(t *testing.T) {
	root := t.TempDir()
	out, err := runErr(t, "print(1)\nprint(1 / 0)", root)
	require.Equal(t, "1\n", out)
	require.Contains(t, err.Error(), "Division by zero")

	_, err = runErr(t, "print(1 % 0)", root)
	require.Contains(t, err.Error(), "Modulo by zero")
}

func TestUndefinedVariable(t *testing.T) {
	root := t.TempDir()
	_, err := runErr(t, "print(ghost)", root)
	require.Contains(t, err.Error(), "Undefined variable 'ghost'")
}

func TestBooleanOperatorsCoerceToBool(t *testing.T) {
	root := t.TempDir()
	out := run(t, "print(0 or 5)\nprint(1 and 2)\nprint('' and 'never')\nprint(not [])", root)
	require.Equal(t, "True\nTrue\nFalse\nTrue\n", out)
}

func TestBooleanOperatorsShortCircuit(t *testing.T) {
	root := t.TempDir()
	out := run(t, "print(0 and ghost)\nprint(1 or ghost)", root)
	require.Equal(t, "False\nTrue\n", out)
}

func TestIfElifElse(t *testing.T) {
	root := t.TempDir()
	source := strings.Join([]string{
		"for i in [1:3]:",
		"  if i == 1:",
		"    print('one')",
		"  elif i == 2:",
		"    print('two')",
		"  else:",
		"    print('many')",
	}, "\n")
	require.Equal(t, "one\ntwo\nmany\n", run(t, source, root))
}

func TestForLoopSnapshotsIterable(t *testing.T) {
	root := t.TempDir()
	source := strings.Join([]string{
		"xs = [1, 2, 3]",
		"total = 0",
		"for x in xs:",
		"  xs = []",
		"  total = total + x",
		"print(total)",
	}, "\n")
	require.Equal(t, "6\n", run(t, source, root))
}

func TestMembership(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o644))
	source := strings.Join([]string{
		"print(2 in [1, 2, 3])",
		"print(9 in [1, 2, 3])",
		"print('bc' in 'abcd')",
		"print('zz' in 'abcd')",
		"f = File('notes.txt')",
		"print('notes' in f)",
		"print('other' in f)",
	}, "\n")
	require.Equal(t, "True\nFalse\nTrue\nFalse\nTrue\nFalse\n", run(t, source, root))
}

func TestLen(t *testing.T) {
	root := t.TempDir()
	require.Equal(t, "3 2\n", run(t, "print(len('abc'), len([1, 2]))", root))
	_, err := runErr(t, "print(len(1))", root)
	require.Contains(t, err.Error(), "len() does not support")
}

func TestComparisonsOrderIntsAndStrings(t *testing.T) {
	root := t.TempDir()
	out := run(t, "print(1 < 2, 'a' < 'b', 2 >= 2, 'x' != 'y')", root)
	require.Equal(t, "True True True True\n", out)
	_, err := runErr(t, "print(1 < 'a')", root)
	require.Contains(t, err.Error(), "Cannot order values")
}

func writeLines(t *testing.T, path string, n int) {
	t.Helper()
	var lines []string
	for i := 1; i <= n; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestFileReadAndPages(t *testing.T) {
	root := t.TempDir()
	writeLines(t, filepath.Join(root, "big.txt"), 170)

	out := run(t, "f = File('big.txt')\nprint(len(f.read(pages=[1, 2, 2])))", root)
	require.Equal(t, "2\n", out)

	out = run(t, "f = File('big.txt')\npages = f.read(pages=2)\nprint(pages)", root)
	require.Contains(t, out, "line 81")

	_, err := runErr(t, "File('big.txt').read(pages=99)", root)
	require.Contains(t, err.Error(), "Page 99 is out of range for big.txt (1..3)")
}

func TestFileSearchContainsHeadTail(t *testing.T) {
	root := t.TempDir()
	writeLines(t, filepath.Join(root, "big.txt"), 170)
	source := strings.Join([]string{
		"f = File('big.txt')",
		"print(f.search('line 101'))",
		"print(f.contains('line 9999'))",
		"print(f.contains('LINE 5', ignore_case=true))",
		"print('line 1' in f.head())",
		"print('line 170' in f.tail())",
	}, "\n")
	require.Equal(t, "[2]\nFalse\nTrue\nTrue\nTrue\n", run(t, source, root))
}

func TestFileSnippets(t *testing.T) {
	root := t.TempDir()
	content := "alpha beta gamma\ndelta beta epsilon\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "s.txt"), []byte(content), 0o644))
	out := run(t, "print(File('s.txt').snippets('beta', max_results=1, context_chars=6))", root)
	require.Equal(t, "['[page 1] alpha beta gamma']\n", out)
}

func TestFileNotFound(t *testing.T) {
	root := t.TempDir()
	_, err := runErr(t, "File('ghost.txt')", root)
	require.Contains(t, err.Error(), "Path not found: ghost.txt")
}

func TestSandboxDenial(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	require.NoError(t, os.MkdirAll(root, 0o755))
	_, err := runErr(t, "File('../secret.txt')", root)
	require.Contains(t, err.Error(), "Access denied.")
	require.Contains(t, err.Error(), "is outside sandbox root")
}

func TestDirectoryFilesAndIteration(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("b"), 0o644))

	out := run(t, "d = Directory('.')\nprint(len(d))\nfor f in d:\n  print(f)", root)
	require.Equal(t, "2\na.txt\nsub/b.txt\n", out)

	out = run(t, "print(Directory('.').files())", root)
	require.Equal(t, "[File('a.txt'), File('sub/b.txt')]\n", out)

	out = run(t, "print(len(Directory('.', recursive=false)))", root)
	require.Equal(t, "1\n", out)
}

func TestDirectorySearchScopes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "report.txt"), []byte("quarterly numbers"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("the report draft"), 0o644))

	source := strings.Join([]string{
		"d = Directory('.')",
		"print(d.search('report'))",
		"print(d.search('report', scope='content'))",
		"print(d.search('report', scope='both'))",
		"print(d.search('REPORT', ignore_case=true))",
	}, "\n")
	out := run(t, source, root)
	require.Equal(t, strings.Join([]string{
		"[File('report.txt')]",
		"[File('notes.txt')]",
		"[File('notes.txt'), File('report.txt')]",
		"[File('report.txt')]",
	}, "\n")+"\n", out)
}

func TestDirectorySearchRejectsBadScope(t *testing.T) {
	root := t.TempDir()
	_, err := runErr(t, "Directory('.').search('x', scope='filename')", root)
	require.Contains(t, err.Error(), "scope must be one of: 'name', 'content', 'both'")
}

func TestDirectoryDoesNotExist(t *testing.T) {
	root := t.TempDir()
	_, err := runErr(t, "Directory('missing')", root)
	require.Contains(t, err.Error(), "Directory does not exist: missing")
}

func TestTreeLayoutAndTruncation(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "zz"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "zz", "deep.txt"), []byte("d"), 0o644))

	out := run(t, "print(Directory('.').tree())", root)
	require.Equal(t, strings.Join([]string{
		"./",
		"  zz/",
		"    deep.txt",
		"  a.txt",
	}, "\n")+"\n", out)

	out = run(t, "print(Directory('.').tree(max_entries=2))", root)
	require.Contains(t, out, "... truncated after 2 entries")

	out = run(t, "print(Directory('.').tree(max_depth=1))", root)
	require.NotContains(t, out, "deep.txt")
}

func TestTreeSkipsStoreDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	storeDir := filepath.Join(root, index.StoreDirName)
	require.NoError(t, os.MkdirAll(storeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "leftover.bin"), []byte("x"), 0o644))

	out := run(t, "print(Directory('.').tree())", root)
	require.NotContains(t, out, index.StoreDirName)
	require.Contains(t, out, "a.txt")
}

func TestTableFromTextHeuristics(t *testing.T) {
	root := t.TempDir()
	toc := strings.Join([]string{
		"1 Introduction .................... 3",
		"1.1 Scope ......................... 4",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "spec.txt"), []byte(toc+"\n"), 0o644))

	out := run(t, "print(File('spec.txt').table())", root)
	require.Equal(t, strings.Join([]string{
		"=== Table of contents for file spec.txt ===",
		"1 Introduction (p.3)",
		"  1.1 Scope (p.4)",
	}, "\n")+"\n", out)
}

func TestTableWithoutHeadings(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "plain.txt"), []byte("no structure here"), 0o644))
	out := run(t, "print(File('plain.txt').table())", root)
	require.Equal(t, "No table of contents detected for plain.txt\n", out)
}

func prepare(t *testing.T, root string) {
	t.Helper()
	builder := index.NewBuilder(extract.New(extract.DefaultTextChunkLines), embedding.NewHashEmbedder(), nil)
	_, err := builder.Prepare(root)
	require.NoError(t, err)
}

func TestSemanticSearchRequiresIndex(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("text"), 0o644))
	_, err := runErr(t, "File('a.txt').semantic_search('query')", root)
	require.Contains(t, err.Error(), "No semantic index found for a.txt. Run 'filescript prepare <folder>' first.")
}

func TestSemanticSearchValidation(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("text"), 0o644))
	prepare(t, root)

	_, err := runErr(t, "File('a.txt').semantic_search('  ')", root)
	require.Contains(t, err.Error(), "query must be a non-empty string")

	_, err = runErr(t, "File('a.txt').semantic_search('q', top_k=0)", root)
	require.Contains(t, err.Error(), "top_k must be a positive integer")
}

func TestFileSemanticSearchRanksPages(t *testing.T) {
	root := t.TempDir()
	var lines []string
	for i := 0; i < 80; i++ {
		lines = append(lines, "sailing ships across the open sea")
	}
	for i := 0; i < 80; i++ {
		lines = append(lines, "quarterly tax accounting spreadsheet rows")
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "mix.txt"), []byte(strings.Join(lines, "\n")), 0o644))
	prepare(t, root)

	out := run(t, "print(File('mix.txt').semantic_search('sailing the sea', top_k=1))", root)
	require.Equal(t, "[1]\n", out)
}

func TestDirectorySemanticSearchFormat(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "sea.txt"), []byte("sailing ships"), 0o644))
	prepare(t, root)

	out := run(t, "print(Directory('.').semantic_search('sailing', top_k=1))", root)
	require.Equal(t, "['[sea.txt] => [p.1] sailing ships']\n", out)
}

func TestIndexBackedFileSurvivesDeletion(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "doomed.txt")
	require.NoError(t, os.WriteFile(path, []byte("remembered text"), 0o644))
	prepare(t, root)
	require.NoError(t, os.Remove(path))

	source := strings.Join([]string{
		"f = File('doomed.txt')",
		"print(f.read())",
		"print(Directory('.').files())",
	}, "\n")
	out := run(t, source, root)
	require.Equal(t, "remembered text\n[File('doomed.txt')]\n", out)
}

func TestIndexBackedTreeShowsDeletedFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "gone.txt"), []byte("x"), 0o644))
	prepare(t, root)
	require.NoError(t, os.Remove(filepath.Join(root, "sub", "gone.txt")))

	out := run(t, "print(Directory('.').tree())", root)
	require.Contains(t, out, "sub/")
	require.Contains(t, out, "gone.txt")
}

func TestEvalSessionKeepsVariables(t *testing.T) {
	root := t.TempDir()
	in, err := interp.New(interp.Options{Cwd: root, SandboxRoot: root})
	require.NoError(t, err)

	out, err := in.Eval("x = 41")
	require.NoError(t, err)
	require.Empty(t, out)

	out, err = in.Eval("print(x + 1)")
	require.NoError(t, err)
	require.Equal(t, "42\n", out)
}

func TestCallingNonCallable(t *testing.T) {
	root := t.TempDir()
	_, err := runErr(t, "x = 1\nx()", root)
	require.Contains(t, err.Error(), "not callable")
}

func TestUnknownAttribute(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	_, err := runErr(t, "File('a.txt').destroy()", root)
	require.Contains(t, err.Error(), "has no attribute 'destroy'")
}

func TestRuntimeErrorCarriesLocation(t *testing.T) {
	root := t.TempDir()
	_, err := runErr(t, "x = 1\ny = x / 0", root)
	formatted := fmt.Sprintf("%v", err)
	require.Contains(t, formatted, "Division by zero")
}
