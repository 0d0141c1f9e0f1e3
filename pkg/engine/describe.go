package engine

import (
	"fmt"
	"io"
	"strings"
)

// DescribeKey returns a one-line description of a key and its current
// value. Default-filled values are marked "(default)" to distinguish
// them from values the user set explicitly; unset cells show the key's
// default marked "(unset)". ctx may be nil.
func DescribeKey(k Key, ctx *EvalContext) string {
	value := k.DefaultPrint()
	marker := "(unset)"
	if ctx != nil && ctx.IsSet(k) {
		if printed, err := k.PrintValue(ctx); err == nil {
			value = printed
		}
		marker = ""
		if src, ok := ctx.Source(k); ok && src == SourceDefault {
			marker = "(default)"
		}
	}
	line := fmt.Sprintf("%s=%s", k.Name(), value)
	if marker != "" {
		line += " " + marker
	}
	return fmt.Sprintf("%-30s [%s] %s", line, k.Stage(), k.Doc().Help)
}

// EmitDoc writes a full documentation block for a key: section,
// synopsis with placeholder and aliases, help text, value type, and
// default.
func EmitDoc(w io.Writer, k Key) {
	doc := k.Doc()
	if doc.Section != "" {
		fmt.Fprintf(w, "%s\n", strings.ToUpper(doc.Section))
	}
	placeholder := doc.Placeholder
	if placeholder == "" {
		placeholder = "VALUE"
	}
	names := append([]string{k.Name()}, doc.Aliases...)
	for i, name := range names {
		names[i] = "--" + name
	}
	fmt.Fprintf(w, "  %s=%s\n", strings.Join(names, ", "), placeholder)
	if doc.Help != "" {
		fmt.Fprintf(w, "      %s\n", doc.Help)
	}
	fmt.Fprintf(w, "      Value: %s. Stage: %s. Default: %s.\n",
		k.TypeDescription(), k.Stage(), k.DefaultPrint())
}
