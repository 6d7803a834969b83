package modules

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const systemTemplate = `{{- with .Instructions }}{{ trim . }}

{{ end -}}
Your input fields are:
{{- range $i, $f := .Inputs }}
{{ add1 $i }}. ` + "`{{ $f.Name }}`" + `{{ with $f.Desc }}: {{ . }}{{ end }}
{{- end }}

Your output fields are:
{{- range $i, $f := .Outputs }}
{{ add1 $i }}. ` + "`{{ $f.Name }}`" + `{{ with $f.Desc }}: {{ . }}{{ end }}
{{- end }}

Respond with a single JSON object whose keys are exactly: {{ join ", " .OutputNames }}. All values must be strings.
{{- if .UseTools }}
You may call the available tools to gather information first. When you are done, reply with the JSON object.
{{- end }}
{{- range $i, $d := .Demos }}
{{ if eq $i 0 }}
Examples:
{{ end }}
Input:
{{ toPrettyJson $d.Inputs }}
Output:
{{ toPrettyJson $d.Outputs }}
{{- end }}`

const userTemplate = `{{- range .Inputs }}
{{ .Name }}:
{{ default "N/A" .Value }}
{{ end }}`

var (
	systemTmpl = template.Must(template.New("system").Funcs(sprig.TxtFuncMap()).Parse(systemTemplate))
	userTmpl   = template.Must(template.New("user").Funcs(sprig.TxtFuncMap()).Parse(userTemplate))
)

// Example is a labelled demonstration shown to the model.
type Example struct {
	Inputs  map[string]string
	Outputs map[string]string
}

type systemData struct {
	Signature
	UseTools bool
	Demos    []Example
}

type inputValue struct {
	Name  string
	Value string
}

func renderSystem(sig Signature, demos []Example, useTools bool) (string, error) {
	var b strings.Builder
	err := systemTmpl.Execute(&b, systemData{
		Signature: sig,
		UseTools:  useTools,
		Demos:     demos,
	})
	return strings.TrimSpace(b.String()), err
}

func renderUser(sig Signature, inputs map[string]string) (string, error) {
	values := make([]inputValue, 0, len(sig.Inputs))
	for _, f := range sig.Inputs {
		v := strings.TrimSpace(inputs[f.Name])
		if v == "" {
			v = f.Default
		}
		values = append(values, inputValue{Name: f.Name, Value: v})
	}
	var b strings.Builder
	err := userTmpl.Execute(&b, struct{ Inputs []inputValue }{values})
	return strings.TrimSpace(b.String()), err
}
