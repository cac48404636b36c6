package base

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gatehouse-project/gatehouse/api"
	"github.com/mitchellh/cli"
	"github.com/mitchellh/go-wordwrap"
	"github.com/ryanuber/columnize"
)

// This is adapted from the code in the strings package for TrimSpace
var asciiSpace = [256]uint8{'\t': 1, '\n': 1, '\v': 1, '\f': 1, '\r': 1, ' ': 1}

func trimSpaceRight(in string) string {
	for stop := len(in); stop > 0; stop-- {
		c := in[stop-1]
		if c >= utf8.RuneSelf {
			return strings.TrimFunc(in[:stop], unicode.IsSpace)
		}
		if asciiSpace[c] == 0 {
			return in[0:stop]
		}
	}
	return ""
}

func WrapForHelpText(lines []string) string {
	var ret []string
	for _, line := range lines {
		line = trimSpaceRight(line)
		trimmed := strings.TrimSpace(line)
		diff := uint(len(line) - len(trimmed))
		wrapped := wordwrap.WrapString(trimmed, TermWidth-diff)
		splitWrapped := strings.Split(wrapped, "\n")
		for i := range splitWrapped {
			splitWrapped[i] = fmt.Sprintf("%s%s", strings.Repeat(" ", int(diff)), strings.TrimSpace(splitWrapped[i]))
		}
		ret = append(ret, strings.Join(splitWrapped, "\n"))
	}

	return strings.Join(ret, "\n")
}

// WrapAtLengthWithPadding wraps the given text at the maxLineLength, taking
// into account any provided left padding.
func WrapAtLengthWithPadding(s string, pad int) string {
	wrapped := wordwrap.WrapString(s, uint(maxLineLength-pad))
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.Repeat(" ", pad) + line
	}
	return strings.Join(lines, "\n")
}

// WrapAtLength wraps the given text to maxLineLength.
func WrapAtLength(s string) string {
	return WrapAtLengthWithPadding(s, 0)
}

func WrapSlice(prefixSpaces int, input []string) string {
	var ret []string
	for _, v := range input {
		ret = append(ret, fmt.Sprintf("%s%s",
			strings.Repeat(" ", prefixSpaces),
			v,
		))
	}

	return strings.Join(ret, "\n")
}

func WrapMap(prefixSpaces, maxLengthOverride int, input map[string]any) string {
	maxKeyLength := maxLengthOverride
	if maxKeyLength == 0 {
		for k := range input {
			if len(k) > maxKeyLength {
				maxKeyLength = len(k)
			}
		}
	}

	var sortedKeys []string
	for k := range input {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	var ret []string
	for _, k := range sortedKeys {
		v := input[k]
		spaces := maxKeyLength - len(k)
		if spaces < 0 {
			spaces = 0
		}

		if sv, ok := v.([]string); ok {
			nv := make([]string, 0, len(sv))
			for _, si := range sv {
				nv = append(nv, fmt.Sprintf("%q", si))
			}
			v = nv
		}

		ret = append(ret, fmt.Sprintf("%s%s%s%v",
			strings.Repeat(" ", prefixSpaces),
			fmt.Sprintf("%s: ", k),
			strings.Repeat(" ", spaces),
			v,
		))
	}

	return strings.Join(ret, "\n")
}

func MaxAttributesLength(nonAttributesMap map[string]any) int {
	var maxLength int
	for k := range nonAttributesMap {
		if len(k) > maxLength {
			maxLength = len(k)
		}
	}
	return maxLength
}

// PrintApiError prints the given API error, optionally with context
// information, to the UI in the appropriate format.
func (c *Command) PrintApiError(in *api.Error, contextStr string) {
	switch Format(c.UI) {
	case "json":
		output := struct {
			Context    string `json:"context,omitempty"`
			StatusCode int    `json:"status_code"`
			Code       string `json:"code,omitempty"`
			Message    string `json:"message,omitempty"`
		}{
			Context:    contextStr,
			StatusCode: in.Status,
			Code:       in.Code,
			Message:    in.Message,
		}
		b, _ := JsonFormatter{}.Format(output)
		c.UI.Error(string(b))

	default:
		nonAttributeMap := map[string]any{
			"Status":  in.Status,
			"Code":    in.Code,
			"Message": in.Message,
		}
		if contextStr != "" {
			nonAttributeMap["Context"] = contextStr
		}

		maxLength := MaxAttributesLength(nonAttributeMap)

		var output []string
		if contextStr != "" {
			output = append(output, contextStr)
		}
		output = append(output,
			"",
			"Error information:",
			WrapMap(2, maxLength+2, nonAttributeMap),
		)

		if in.Details != nil {
			if in.Details.RequestId != "" {
				output = append(output,
					fmt.Sprintf("  Request ID:          %s", in.Details.RequestId),
				)
			}
			if len(in.Details.RequestFields) > 0 {
				output = append(output,
					"",
					"  Field-specific Errors:",
				)
				for _, field := range in.Details.RequestFields {
					output = append(output,
						fmt.Sprintf("    Name:              -%s", strings.ReplaceAll(field.Name, "_", "-")),
						fmt.Sprintf("      Error:           %s", field.Description),
					)
				}
			}
		}

		c.UI.Error(WrapForHelpText(output))
	}
}

// PrintCliError prints the given CLI error to the UI in the appropriate
// format.
func (c *Command) PrintCliError(err error) {
	switch Format(c.UI) {
	case "json":
		output := struct {
			Error string `json:"error"`
		}{
			Error: err.Error(),
		}
		b, _ := JsonFormatter{}.Format(output)
		c.UI.Error(string(b))
	default:
		c.UI.Error(err.Error())
	}
}

// PrintJsonItems prints the given items as a JSON array.
func (c *Command) PrintJsonItems(items any) bool {
	output := struct {
		Items any `json:"items"`
	}{
		Items: items,
	}
	b, err := JsonFormatter{}.Format(output)
	if err != nil {
		c.UI.Error(fmt.Errorf("Error formatting as JSON: %w", err).Error())
		return false
	}
	c.UI.Output(string(b))
	return true
}

// PrintJson prints the given item as JSON.
func (c *Command) PrintJson(item any) bool {
	b, err := JsonFormatter{}.Format(item)
	if err != nil {
		c.UI.Error(fmt.Errorf("Error formatting as JSON: %w", err).Error())
		return false
	}
	c.UI.Output(string(b))
	return true
}

type Formatter interface {
	Format(data any) ([]byte, error)
}

var Formatters = map[string]Formatter{
	"json":  JsonFormatter{},
	"table": TableFormatter{},
}

type JsonFormatter struct{}

func (j JsonFormatter) Format(data any) ([]byte, error) {
	return json.MarshalIndent(data, "", "  ")
}

type TableFormatter struct{}

func (t TableFormatter) Format(data any) ([]byte, error) {
	return []byte(fmt.Sprintf("%v", data)), nil
}

// ColumnOutput prints the given rows as aligned columns, where the first row
// is the list of headers.
func ColumnOutput(rows []string) string {
	if len(rows) == 0 {
		return ""
	}
	return columnize.Format(rows, &columnize.Config{
		Glue:  "    ",
		Empty: "n/a",
	})
}

func Format(ui cli.Ui) string {
	switch t := ui.(type) {
	case *GatehouseUI:
		return t.Format
	}

	format := os.Getenv(EnvGatehouseCLIFormat)
	if format == "" {
		format = "table"
	}

	return format
}
