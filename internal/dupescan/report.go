package dupescan

import (
	"fmt"
	"html/template"
	"io"
)

// The hash function is rebound per report; the parse-time binding only
// satisfies the template compiler.
var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"hash": func(string) string { return "missing" },
}).Parse(`<style>
table { border-collapse: collapse; width: 100%; }
td:first-child { width: 100%; }
table, tr, th, td { border: 1px solid black; }
</style>
{{- range .Sets}}
<h3>{{.Key}}</h3>
<table>
<tr><th>path</th><th>hash</th></tr>
{{- range .Paths}}
<tr><td>{{.}}</td><td>{{hash .}}</td></tr>
{{- end}}
</table>
{{- end}}
`))

// WriteTextReport prints one block per collision set: the folded key,
// then each spelling with its digest.
func WriteTextReport(w io.Writer, sets []Set, hashes map[string]string) {
	for _, set := range sets {
		fmt.Fprintln(w, set.Key)
		for _, path := range set.Paths {
			fmt.Fprintf(w, " => %s %s\n", path, digestFor(hashes, path))
		}
	}
}

// WriteHTMLReport renders the collision sets as a standalone HTML page.
func WriteHTMLReport(w io.Writer, sets []Set, hashes map[string]string) error {
	tmpl, err := htmlReport.Clone()
	if err != nil {
		return err
	}

	tmpl = tmpl.Funcs(template.FuncMap{
		"hash": func(path string) string { return digestFor(hashes, path) },
	})

	return tmpl.Execute(w, struct{ Sets []Set }{sets})
}

func digestFor(hashes map[string]string, path string) string {
	if digest, ok := hashes[path]; ok {
		return digest
	}
	return "missing"
}
