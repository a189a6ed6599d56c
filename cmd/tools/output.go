package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/lychee-technology/eav"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

// tabular is implemented by result sets that know their table layout.
type tabular interface {
	header() []string
	rows() [][]string
}

type entityTypeTable []eav.EntityType

func (t entityTypeTable) header() []string { return []string{"ID", "NAME", "CREATED"} }
func (t entityTypeTable) rows() [][]string {
	out := make([][]string, 0, len(t))
	for _, et := range t {
		out = append(out, []string{itoa(et.ID), et.Name, et.CreatedAt.Format(time.RFC3339)})
	}
	return out
}

type entityTable []eav.Entity

func (t entityTable) header() []string { return []string{"ID", "NAME", "TYPE", "CREATED"} }
func (t entityTable) rows() [][]string {
	out := make([][]string, 0, len(t))
	for _, e := range t {
		out = append(out, []string{itoa(e.ID), e.Name, itoa(e.EntityTypeID), e.CreatedAt.Format(time.RFC3339)})
	}
	return out
}

type attributeTable []eav.Attribute

func (t attributeTable) header() []string {
	return []string{"ID", "NAME", "TYPE", "VALUE TYPE", "MULTIPLE"}
}
func (t attributeTable) rows() [][]string {
	out := make([][]string, 0, len(t))
	for _, a := range t {
		out = append(out, []string{itoa(a.ID), a.Name, itoa(a.EntityTypeID), string(a.ValueType), strconv.FormatBool(a.AllowMultiple)})
	}
	return out
}

type valueTable []eav.Value

func (t valueTable) header() []string { return []string{"ID", "ENTITY", "ATTR", "VALUE"} }
func (t valueTable) rows() [][]string {
	out := make([][]string, 0, len(t))
	for _, v := range t {
		out = append(out, []string{itoa(v.ID), itoa(v.EntityID), itoa(v.AttrID), payloadText(v.ValuePayload)})
	}
	return out
}

type viewTable []eav.View

func (t viewTable) header() []string { return []string{"ATTR", "VALUE TYPE", "VALUE ID", "VALUE"} }
func (t viewTable) rows() [][]string {
	out := make([][]string, 0, len(t))
	for _, v := range t {
		row := []string{deref(v.Attr), "", "-", "-"}
		if v.ValueType != nil {
			row[1] = string(*v.ValueType)
		}
		if !v.IsPlaceholder() {
			row[2] = itoa(*v.ValueID)
			row[3] = payloadText(eav.ValuePayload{
				ValueStr:   v.ValueStr,
				ValueInt:   v.ValueInt,
				ValueFloat: v.ValueFloat,
				ValueTime:  v.ValueTime,
				ValueBool:  v.ValueBool,
			})
		}
		out = append(out, row)
	}
	return out
}

// render writes data in the requested format. Tables fall back to YAML for
// values without a tabular layout.
func render(w io.Writer, format string, data any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case formatYAML:
		return renderYAML(w, data)
	}

	t, ok := data.(tabular)
	if !ok {
		return renderYAML(w, data)
	}
	table := pterm.TableData{t.header()}
	table = append(table, t.rows()...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(table).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func renderYAML(w io.Writer, data any) error {
	// types with custom JSON encodings (schemas) go through their JSON form
	if m, ok := data.(json.Marshaler); ok {
		raw, err := m.MarshalJSON()
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		data = generic
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// payloadText shows the populated payload columns, the unit annotation after
// the typed value.
func payloadText(p eav.ValuePayload) string {
	var text string
	switch {
	case p.ValueInt != nil:
		text = strconv.FormatInt(*p.ValueInt, 10)
	case p.ValueFloat != nil:
		text = strconv.FormatFloat(*p.ValueFloat, 'g', -1, 64)
	case p.ValueTime != nil:
		text = p.ValueTime.UTC().Format(time.RFC3339)
	case p.ValueBool != nil:
		text = strconv.FormatBool(*p.ValueBool)
	case p.ValueStr != nil:
		return *p.ValueStr
	}
	if p.ValueStr != nil && *p.ValueStr != "" {
		text += " " + *p.ValueStr
	}
	return text
}

func printError(err error) {
	pterm.Error.Println(err.Error())
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
