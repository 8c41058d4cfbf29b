package merge

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gardar/plainmerge/pkg/placeholder"
	"github.com/gardar/plainmerge/pkg/rows"
)

const defaultExt = ".pdf"

// OutputName returns the artifact name of a row written on its own. The name
// is the rendered filename template, or "<base>_<rowNum>" when the template is
// empty or renders to nothing. It is made ASCII safe and placed in the
// directory of output with output's extension.
//
//	OutputName("out/report.pdf", "", 2, row)                 // out/report_2.pdf
//	OutputName("out/report.pdf", `[[{"id":0}]]`, 2, row)     // out/Jon_Jonsson.pdf
func OutputName(output, tpl string, rowNum int, row rows.RowData) string {
	dir, file := filepath.Split(output)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	if ext == "" {
		ext = defaultExt
	}

	var name string
	if tpl != "" {
		name = placeholder.Render(tpl, row)
		if strings.EqualFold(filepath.Ext(name), ext) {
			name = strings.TrimSuffix(name, filepath.Ext(name))
		}
	}
	if name == "" {
		name = fmt.Sprintf("%s_%d", base, rowNum)
	}
	return filepath.Join(dir, placeholder.Sanitize(name)+ext)
}

// withSuffix inserts _n before the extension of name.
func withSuffix(name string, n int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}
