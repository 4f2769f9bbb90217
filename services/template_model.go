package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldRef points at a value in the invoice context, e.g. "worker.name".
type FieldRef string

// Field namespaces understood by ResolveField.
const (
	NamespaceWorker  = "worker"
	NamespaceInvoice = "invoice"
	NamespaceAgency  = "agency"
)

// Split returns the namespace and property of the reference.
func (f FieldRef) Split() (namespace, property string, ok bool) {
	return strings.Cut(string(f), ".")
}

// Block is either a *VerticalBlock or a *HorizontalBlock.
type Block interface {
	BlockID() int
	IsLocked() bool
	blockType() string
}

// VerticalBlock renders a bold title followed by one resolved value.
type VerticalBlock struct {
	ID     int
	Title  string
	Field  FieldRef
	Locked bool
}

func (b *VerticalBlock) BlockID() int      { return b.ID }
func (b *VerticalBlock) IsLocked() bool    { return b.Locked }
func (b *VerticalBlock) blockType() string { return "vertical" }

// KeyValue is one "key: value" pair of a horizontal block.
type KeyValue struct {
	Key   string   `json:"key"`
	Value FieldRef `json:"value"`
}

// HorizontalBlock renders each pair on its own line with the key in bold.
type HorizontalBlock struct {
	ID        int
	KeyValues []KeyValue
	Locked    bool
}

func (b *HorizontalBlock) BlockID() int      { return b.ID }
func (b *HorizontalBlock) IsLocked() bool    { return b.Locked }
func (b *HorizontalBlock) blockType() string { return "horizontal" }

// Line is either a TextLine or the single ItemsLine of a template.
type Line interface {
	lineType() string
}

// TextLine holds at most one block per side.
type TextLine struct {
	Left  Block
	Right Block
}

func (TextLine) lineType() string { return "text" }

// ItemsLine marks where the line-items table renders.
type ItemsLine struct{}

func (ItemsLine) lineType() string { return "items" }

// ColumnData selects what an extra items-table column shows.
type ColumnData string

const (
	ColumnWorkedHours  ColumnData = "worker.workedHours"
	ColumnOverdueHours ColumnData = "worker.overdueHours"
	ColumnTotalHours   ColumnData = "worker.totalHours"
	ColumnHourlyRate   ColumnData = "worker.hourlyRate"
)

// ColumnDataOption is a selectable column source for the editor.
type ColumnDataOption struct {
	Data  ColumnData `json:"data"`
	Label string     `json:"label"`
	Money bool       `json:"money"`
}

// ColumnDataOptions lists every supported column source.
var ColumnDataOptions = []ColumnDataOption{
	{Data: ColumnWorkedHours, Label: "REG hours"},
	{Data: ColumnOverdueHours, Label: "OT hours"},
	{Data: ColumnTotalHours, Label: "Total hours"},
	{Data: ColumnHourlyRate, Label: "Hourly rate", Money: true},
}

func columnDataOption(d ColumnData) (ColumnDataOption, bool) {
	for _, o := range ColumnDataOptions {
		if o.Data == d {
			return o, true
		}
	}
	return ColumnDataOption{}, false
}

// Column is an extra items-table column between "Item" and "Total".
type Column struct {
	ID    int        `json:"internalId"`
	Title string     `json:"title"`
	Data  ColumnData `json:"data"`
	Size  float64    `json:"size,omitempty"`
}

// Template is the persisted invoice layout.
type Template struct {
	Name         string
	Description  string
	Columns      []Column
	Lines        []Line
	Tax          float64
	NextBlockID  int
	NextColumnID int
}

type blockJSON struct {
	Type       string     `json:"type"`
	InternalID int        `json:"internalId"`
	Title      string     `json:"title,omitempty"`
	Field      FieldRef   `json:"field,omitempty"`
	KeyValues  []KeyValue `json:"keyValues,omitempty"`
	Locked     bool       `json:"locked,omitempty"`
}

type lineJSON struct {
	Type  string     `json:"type"`
	Left  *blockJSON `json:"left,omitempty"`
	Right *blockJSON `json:"right,omitempty"`
}

type templateJSON struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Columns      []Column   `json:"columns"`
	Lines        []lineJSON `json:"lines"`
	Tax          float64    `json:"tax"`
	NextBlockID  int        `json:"nextBlockId,omitempty"`
	NextColumnID int        `json:"nextColumnId,omitempty"`
}

func encodeBlock(b Block) *blockJSON {
	switch blk := b.(type) {
	case nil:
		return nil
	case *VerticalBlock:
		return &blockJSON{Type: blk.blockType(), InternalID: blk.ID, Title: blk.Title, Field: blk.Field, Locked: blk.Locked}
	case *HorizontalBlock:
		return &blockJSON{Type: blk.blockType(), InternalID: blk.ID, KeyValues: blk.KeyValues, Locked: blk.Locked}
	default:
		panic(fmt.Sprintf("unknown block type %T", b))
	}
}

func decodeBlock(j *blockJSON) (Block, error) {
	if j == nil {
		return nil, nil
	}
	switch j.Type {
	case "vertical":
		return &VerticalBlock{ID: j.InternalID, Title: j.Title, Field: j.Field, Locked: j.Locked}, nil
	case "horizontal":
		return &HorizontalBlock{ID: j.InternalID, KeyValues: j.KeyValues, Locked: j.Locked}, nil
	default:
		return nil, invalid("lines", "unknown block type %q", j.Type)
	}
}

func (b *VerticalBlock) MarshalJSON() ([]byte, error)   { return json.Marshal(encodeBlock(b)) }
func (b *HorizontalBlock) MarshalJSON() ([]byte, error) { return json.Marshal(encodeBlock(b)) }

// UnmarshalBlock decodes a single block from its JSON form.
func UnmarshalBlock(data []byte) (Block, error) {
	var j blockJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, invalid("block", "invalid JSON: %v", err)
	}
	return decodeBlock(&j)
}

func (t Template) MarshalJSON() ([]byte, error) {
	out := templateJSON{
		Name:         t.Name,
		Description:  t.Description,
		Columns:      t.Columns,
		Lines:        make([]lineJSON, 0, len(t.Lines)),
		Tax:          t.Tax,
		NextBlockID:  t.NextBlockID,
		NextColumnID: t.NextColumnID,
	}
	if out.Columns == nil {
		out.Columns = []Column{}
	}
	for _, l := range t.Lines {
		switch ln := l.(type) {
		case TextLine:
			out.Lines = append(out.Lines, lineJSON{Type: ln.lineType(), Left: encodeBlock(ln.Left), Right: encodeBlock(ln.Right)})
		case ItemsLine:
			out.Lines = append(out.Lines, lineJSON{Type: ln.lineType()})
		default:
			return nil, fmt.Errorf("unknown line type %T", l)
		}
	}
	return json.Marshal(out)
}

func (t *Template) UnmarshalJSON(data []byte) error {
	var in templateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	lines := make([]Line, 0, len(in.Lines))
	for i, l := range in.Lines {
		switch l.Type {
		case "items":
			lines = append(lines, ItemsLine{})
		case "text":
			left, err := decodeBlock(l.Left)
			if err != nil {
				return err
			}
			right, err := decodeBlock(l.Right)
			if err != nil {
				return err
			}
			lines = append(lines, TextLine{Left: left, Right: right})
		default:
			return invalid(fmt.Sprintf("lines[%d]", i), "unknown line type %q", l.Type)
		}
	}
	*t = Template{
		Name:         in.Name,
		Description:  in.Description,
		Columns:      in.Columns,
		Lines:        lines,
		Tax:          in.Tax,
		NextBlockID:  in.NextBlockID,
		NextColumnID: in.NextColumnID,
	}
	return nil
}

// ValidateFieldRef checks that ref names a property the resolver knows.
// Rendering never depends on this: unknown refs still resolve to "".
func ValidateFieldRef(ref FieldRef) error {
	ns, prop, ok := ref.Split()
	if !ok || prop == "" {
		return invalid("field", "%q is not of the form namespace.property", ref)
	}
	props, ok := fieldProperties[ns]
	if !ok {
		return invalid("field", "unknown namespace %q in %q", ns, ref)
	}
	if !props[prop] {
		return invalid("field", "unknown %s property %q", ns, prop)
	}
	return nil
}

// Validate checks the invariants a template must satisfy before it is stored.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return invalid("name", "name is required")
	}
	if strings.TrimSpace(t.Description) == "" {
		return invalid("description", "description is required")
	}
	if t.Tax < 0 || t.Tax > 100 {
		return invalid("tax", "tax must be between 0 and 100, got %v", t.Tax)
	}

	columnIDs := make(map[int]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.ID <= 0 || columnIDs[c.ID] {
			return invalid("columns", "duplicate or invalid column id %d", c.ID)
		}
		columnIDs[c.ID] = true
		if _, ok := columnDataOption(c.Data); !ok {
			return invalid("columns", "unknown column data %q", c.Data)
		}
		if c.Size < 0 {
			return invalid("columns", "column %d has negative size", c.ID)
		}
	}

	items := 0
	blockIDs := make(map[int]bool)
	for i, l := range t.Lines {
		switch ln := l.(type) {
		case ItemsLine:
			items++
		case TextLine:
			if ln.Left == nil && ln.Right == nil {
				return invalid(fmt.Sprintf("lines[%d]", i), "text line has no blocks")
			}
			for _, b := range []Block{ln.Left, ln.Right} {
				if b == nil {
					continue
				}
				if b.BlockID() <= 0 || blockIDs[b.BlockID()] {
					return invalid(fmt.Sprintf("lines[%d]", i), "duplicate or invalid block id %d", b.BlockID())
				}
				blockIDs[b.BlockID()] = true
				if err := validateBlock(b); err != nil {
					return err
				}
			}
		default:
			return invalid(fmt.Sprintf("lines[%d]", i), "unknown line type %T", l)
		}
	}
	if items != 1 {
		return invalid("lines", "template must contain exactly one items line, found %d", items)
	}
	return nil
}

func validateBlock(b Block) error {
	if blockExtent(b) > MaxBlockExtent {
		return invalid("keyValues", "block %d is taller than a page", b.BlockID())
	}
	switch blk := b.(type) {
	case *VerticalBlock:
		return ValidateFieldRef(blk.Field)
	case *HorizontalBlock:
		if len(blk.KeyValues) == 0 {
			return invalid("keyValues", "block %d has no key/value pairs", blk.ID)
		}
		for _, kv := range blk.KeyValues {
			if err := ValidateFieldRef(kv.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return invalid("block", "unknown block type %T", b)
	}
}

func cloneBlock(b Block) Block {
	switch blk := b.(type) {
	case *VerticalBlock:
		c := *blk
		return &c
	case *HorizontalBlock:
		c := *blk
		c.KeyValues = append([]KeyValue(nil), blk.KeyValues...)
		return &c
	default:
		return nil
	}
}
