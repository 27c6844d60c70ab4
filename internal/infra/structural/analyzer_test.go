//go:build cgo

package structural

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

func pyFile(content string) analysis.SourceFile {
	return analysis.SourceFile{Path: "sample.py", Content: content, Language: analysis.LangPython}
}

func TestScanCleanFile(t *testing.T) {
	findings, err := NewAnalyzer().Scan(pyFile("def add(a, b):\n    return a + b\n"))
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestScanIsDeterministic(t *testing.T) {
	src := pyFile("password = \"hunter2hunter2\"\nif True:\n    x = 1\n")
	a := NewAnalyzer()

	first, err := a.Scan(src)
	require.NoError(t, err)
	second, err := a.Scan(src)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScanFlagsComplexFunction(t *testing.T) {
	src := "def worker(x):\n"
	for i := 0; i < 12; i++ {
		src += "    if x > " + string(rune('0'+i%10)) + ":\n        x -= 1\n"
	}
	src += "    return x\n"

	findings, err := NewAnalyzer().Scan(pyFile(src))
	require.NoError(t, err)
	require.NotEmpty(t, findings)

	var hit *analysis.Finding
	for i := range findings {
		if findings[i].Category == analysis.CategoryQuality {
			hit = &findings[i]
			break
		}
	}
	require.NotNil(t, hit)
	assert.Equal(t, analysis.SeverityMedium, hit.Severity)
	assert.Contains(t, hit.Description, "cyclomatic complexity")
	assert.Contains(t, hit.Description, "worker")
	assert.Equal(t, 1, hit.LineStart)
}

func TestScanComplexityThresholdRespected(t *testing.T) {
	src := "def few(x):\n    if x:\n        return 1\n    return 0\n"

	a := NewAnalyzer()
	findings, err := a.Scan(pyFile(src))
	require.NoError(t, err)
	assert.Empty(t, findings)

	a.ComplexityThreshold = 1
	findings, err = a.Scan(pyFile(src))
	require.NoError(t, err)
	assert.NotEmpty(t, findings)
}

func TestScanFlagsBareExceptWithPass(t *testing.T) {
	src := "try:\n    risky()\nexcept:\n    pass\n"

	findings, err := NewAnalyzer().Scan(pyFile(src))
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, analysis.CategoryQuality, findings[0].Category)
	assert.Contains(t, findings[0].Description, "broad exception")
}

func TestScanFlagsBroadExceptThatOnlyLogs(t *testing.T) {
	src := "try:\n    risky()\nexcept Exception as e:\n    print(e)\n"

	findings, err := NewAnalyzer().Scan(pyFile(src))
	require.NoError(t, err)
	assert.Len(t, findings, 1)
}

func TestScanAllowsHandledException(t *testing.T) {
	src := "try:\n    risky()\nexcept ValueError:\n    recover()\n"

	findings, err := NewAnalyzer().Scan(pyFile(src))
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestScanFlagsConstantCondition(t *testing.T) {
	src := "if True:\n    x = 1\n"

	findings, err := NewAnalyzer().Scan(pyFile(src))
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, analysis.SeverityLow, findings[0].Severity)
	assert.Contains(t, findings[0].Description, "unreachable")
}

func TestScanFlagsHardcodedSecret(t *testing.T) {
	src := "api_key = \"sk-124abcdef5678\"\n"

	findings, err := NewAnalyzer().Scan(pyFile(src))
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, analysis.CategorySecurity, findings[0].Category)
	assert.Equal(t, analysis.SeverityHigh, findings[0].Severity)
	assert.Contains(t, findings[0].Description, "api_key")
}

func TestScanIgnoresPlaceholderSecrets(t *testing.T) {
	for _, src := range []string{
		"password = \"${DB_PASSWORD}\"\n",
		"password = \"<set me>\"\n",
		"password = \"abc\"\n", // too short to be a real credential
		"timeout = \"30seconds\"\n",
	} {
		findings, err := NewAnalyzer().Scan(pyFile(src))
		require.NoError(t, err)
		assert.Empty(t, findings, "source: %s", src)
	}
}

func TestScanParseErrorOnGarbage(t *testing.T) {
	_, err := NewAnalyzer().Scan(pyFile("def broken(:::\n"))
	require.Error(t, err)

	var perr *analysis.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestScanSkipsUnsupportedLanguage(t *testing.T) {
	findings, err := NewAnalyzer().Scan(analysis.SourceFile{
		Path: "main.go", Content: "package main", Language: analysis.LangOther,
	})
	require.NoError(t, err)
	assert.Nil(t, findings)
}

func TestScanJavaScriptCatch(t *testing.T) {
	src := "try { risky() } catch (e) { console.log(e) }\n"

	findings, err := NewAnalyzer().Scan(analysis.SourceFile{
		Path: "app.js", Content: src, Language: analysis.LangJavaScript,
	})
	require.NoError(t, err)
	assert.Len(t, findings, 1)
}
