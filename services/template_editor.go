package services

import (
	"sort"
	"strconv"
	"strings"
)

// BlockKind selects the variant created by AddBlock.
type BlockKind string

const (
	BlockVertical   BlockKind = "vertical"
	BlockHorizontal BlockKind = "horizontal"
)

// Defaults for a new template.
const (
	DefaultTemplateName        = "Standard Invoice"
	DefaultTemplateDescription = "Hours worked in the billing period"
	DefaultRows                = 3
	DefaultTableLine           = 3
	DefaultColumnSize          = 1
)

// EditorState is the in-memory layout of a template while it is being
// edited. Slots map a drop position to a block id; for row r the left slot
// is 2r-1 and the right slot is 2r. Rows below TableLine render before the
// items table, the rest after it.
type EditorState struct {
	Name        string
	Description string
	Tax         float64
	Blocks      []Block
	Columns     []Column
	Slots       map[int]int
	Rows        int
	TableLine   int

	nextBlockID  int
	nextColumnID int
}

// NewEditorState returns the default layout: invoice number and date on the
// first row, the bill-to block on the second, the table after that.
func NewEditorState() *EditorState {
	return &EditorState{
		Name:        DefaultTemplateName,
		Description: DefaultTemplateDescription,
		Tax:         0,
		Blocks: []Block{
			&VerticalBlock{ID: 1, Title: "Invoice Number", Field: "invoice.id", Locked: true},
			&VerticalBlock{ID: 2, Title: "Invoice Date", Field: "invoice.date", Locked: true},
			&VerticalBlock{ID: 3, Title: "Bill To", Field: "worker.name", Locked: true},
		},
		Columns: []Column{
			{ID: 1, Title: "REG Hours", Data: ColumnWorkedHours, Size: DefaultColumnSize},
			{ID: 2, Title: "OT Hours", Data: ColumnOverdueHours, Size: DefaultColumnSize},
		},
		Slots:        map[int]int{1: 1, 2: 2, 3: 3},
		Rows:         DefaultRows,
		TableLine:    DefaultTableLine,
		nextBlockID:  4,
		nextColumnID: 3,
	}
}

// DefaultTemplate is the serialized form of NewEditorState.
func DefaultTemplate() Template {
	return Serialize(NewEditorState())
}

func slotRow(slot int) int { return (slot + 1) / 2 }

func leftSlot(row int) int  { return 2*row - 1 }
func rightSlot(row int) int { return 2 * row }

func (s *EditorState) checkSlot(slot int) error {
	if slot < 1 || slot > 2*s.Rows {
		return invalid("slot", "slot %d is out of range 1..%d", slot, 2*s.Rows)
	}
	return nil
}

// SlotOf returns the slot holding blockID.
func (s *EditorState) SlotOf(blockID int) (int, bool) {
	for slot, id := range s.Slots {
		if id == blockID {
			return slot, true
		}
	}
	return 0, false
}

// Block returns the block with the given id.
func (s *EditorState) Block(id int) (Block, bool) {
	for _, b := range s.Blocks {
		if b.BlockID() == id {
			return b, true
		}
	}
	return nil, false
}

// DragSwap exchanges the content of the slot holding blockID with toSlot.
// If toSlot was empty the source slot becomes empty. A block that is not
// placed anywhere is left alone.
func (s *EditorState) DragSwap(blockID, toSlot int) error {
	if err := s.checkSlot(toSlot); err != nil {
		return err
	}
	from, ok := s.SlotOf(blockID)
	if !ok || from == toSlot {
		return nil
	}

	target, occupied := s.Slots[toSlot]
	s.Slots[toSlot] = blockID
	if occupied {
		s.Slots[from] = target
	} else {
		delete(s.Slots, from)
	}
	return nil
}

// InsertRow adds an empty row. Before the table, the new row is opened
// directly above the table and rows at or below it shift down by one, so
// every existing row keeps its side of the table.
func (s *EditorState) InsertRow(beforeTable bool) {
	s.Rows++
	if !beforeTable {
		return
	}

	shifted := make(map[int]int, len(s.Slots))
	for slot, id := range s.Slots {
		if slotRow(slot) >= s.TableLine {
			slot += 2
		}
		shifted[slot] = id
	}
	s.Slots = shifted
	s.TableLine++
}

// AddBlock creates a default block of kind and places it into an empty slot.
func (s *EditorState) AddBlock(slot int, kind BlockKind) (Block, error) {
	if err := s.checkSlot(slot); err != nil {
		return nil, err
	}
	if _, taken := s.Slots[slot]; taken {
		return nil, invalid("slot", "slot %d is occupied", slot)
	}

	var b Block
	switch kind {
	case BlockVertical:
		b = &VerticalBlock{ID: s.nextBlockID, Title: "New Block", Field: FieldOptions[0].Field}
	case BlockHorizontal:
		b = &HorizontalBlock{ID: s.nextBlockID, KeyValues: []KeyValue{{Key: "New Key", Value: FieldOptions[0].Field}}}
	default:
		return nil, invalid("kind", "unknown block kind %q", kind)
	}
	s.nextBlockID++
	s.Blocks = append(s.Blocks, b)
	s.Slots[slot] = b.BlockID()
	return b, nil
}

// RemoveBlock deletes a block and clears every slot pointing at it.
// Removing a missing block is a no-op. Lock checks are the caller's job,
// see CheckRemovable.
func (s *EditorState) RemoveBlock(id int) {
	kept := s.Blocks[:0]
	for _, blk := range s.Blocks {
		if blk.BlockID() != id {
			kept = append(kept, blk)
		}
	}
	s.Blocks = kept

	for slot, bid := range s.Slots {
		if bid == id {
			delete(s.Slots, slot)
		}
	}
}

// CheckRemovable reports ErrBlockLocked for the permanent default blocks.
func (s *EditorState) CheckRemovable(id int) error {
	if b, ok := s.Block(id); ok && b.IsLocked() {
		return ErrBlockLocked
	}
	return nil
}

func (s *EditorState) editableBlock(id int) (Block, error) {
	b, ok := s.Block(id)
	if !ok {
		return nil, notFound("block", strconv.Itoa(id))
	}
	if b.IsLocked() {
		return nil, ErrBlockLocked
	}
	return b, nil
}

// SetBlockTitle renames a vertical block.
func (s *EditorState) SetBlockTitle(id int, title string) error {
	b, err := s.editableBlock(id)
	if err != nil {
		return err
	}
	vb, ok := b.(*VerticalBlock)
	if !ok {
		return invalid("title", "block %d has no title", id)
	}
	vb.Title = strings.TrimSpace(title)
	return nil
}

// SetBlockField changes the field a vertical block shows.
func (s *EditorState) SetBlockField(id int, field FieldRef) error {
	if err := ValidateFieldRef(field); err != nil {
		return err
	}
	b, err := s.editableBlock(id)
	if err != nil {
		return err
	}
	vb, ok := b.(*VerticalBlock)
	if !ok {
		return invalid("field", "block %d is not a vertical block", id)
	}
	vb.Field = field
	return nil
}

func (s *EditorState) horizontalBlock(id int) (*HorizontalBlock, error) {
	b, err := s.editableBlock(id)
	if err != nil {
		return nil, err
	}
	hb, ok := b.(*HorizontalBlock)
	if !ok {
		return nil, invalid("keyValues", "block %d is not a horizontal block", id)
	}
	return hb, nil
}

// AddKeyValue appends a default pair to a horizontal block.
func (s *EditorState) AddKeyValue(id int) error {
	hb, err := s.horizontalBlock(id)
	if err != nil {
		return err
	}
	if float64(len(hb.KeyValues)+1)*LineHeight > MaxBlockExtent {
		return invalid("keyValues", "block %d cannot hold more than %d pairs", id, len(hb.KeyValues))
	}
	hb.KeyValues = append(hb.KeyValues, KeyValue{Key: "New Key", Value: FieldOptions[0].Field})
	return nil
}

// SetKeyValue replaces the pair at index.
func (s *EditorState) SetKeyValue(id, index int, kv KeyValue) error {
	if err := ValidateFieldRef(kv.Value); err != nil {
		return err
	}
	hb, err := s.horizontalBlock(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(hb.KeyValues) {
		return invalid("index", "pair %d does not exist", index)
	}
	hb.KeyValues[index] = kv
	return nil
}

// RemoveKeyValue drops the pair at index. The last pair cannot be removed.
func (s *EditorState) RemoveKeyValue(id, index int) error {
	hb, err := s.horizontalBlock(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(hb.KeyValues) {
		return invalid("index", "pair %d does not exist", index)
	}
	if len(hb.KeyValues) == 1 {
		return invalid("keyValues", "a horizontal block needs at least one pair")
	}
	hb.KeyValues = append(hb.KeyValues[:index], hb.KeyValues[index+1:]...)
	return nil
}

// AddColumn appends a column with default title and data.
func (s *EditorState) AddColumn() Column {
	c := Column{ID: s.nextColumnID, Title: "New Column", Data: ColumnWorkedHours, Size: DefaultColumnSize}
	s.nextColumnID++
	s.Columns = append(s.Columns, c)
	return c
}

// UpdateColumn replaces title, data and size of a column.
func (s *EditorState) UpdateColumn(c Column) error {
	if _, ok := columnDataOption(c.Data); !ok {
		return invalid("data", "unknown column data %q", c.Data)
	}
	if c.Size < 0 {
		return invalid("size", "size must not be negative")
	}
	for i := range s.Columns {
		if s.Columns[i].ID == c.ID {
			s.Columns[i] = c
			return nil
		}
	}
	return notFound("column", strconv.Itoa(c.ID))
}

// RemoveColumn deletes a column; a missing id is a no-op.
func (s *EditorState) RemoveColumn(id int) {
	kept := s.Columns[:0]
	for _, c := range s.Columns {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.Columns = kept
}

// SetMeta updates name, description and tax.
func (s *EditorState) SetMeta(name, description string, tax float64) error {
	if tax < 0 || tax > 100 {
		return invalid("tax", "tax must be between 0 and 100")
	}
	s.Name = strings.TrimSpace(name)
	s.Description = strings.TrimSpace(description)
	s.Tax = tax
	return nil
}

// PreviewTotals estimates totals for the editor preview.
func (s *EditorState) PreviewTotals(subtotalCents int64) InvoiceTotals {
	return CalcInvoiceTotals(subtotalCents, s.Tax)
}

// Serialize turns the editor state into a Template. Rows with both slots
// empty are dropped and blocks that are not placed are not stored.
func Serialize(s *EditorState) Template {
	var before, after []Line
	for r := 1; r <= s.Rows; r++ {
		line := TextLine{Left: s.blockAt(leftSlot(r)), Right: s.blockAt(rightSlot(r))}
		if line.Left == nil && line.Right == nil {
			continue
		}
		if r < s.TableLine {
			before = append(before, line)
		} else {
			after = append(after, line)
		}
	}

	lines := make([]Line, 0, len(before)+len(after)+1)
	lines = append(lines, before...)
	lines = append(lines, ItemsLine{})
	lines = append(lines, after...)

	return Template{
		Name:         s.Name,
		Description:  s.Description,
		Columns:      append([]Column(nil), s.Columns...),
		Lines:        lines,
		Tax:          s.Tax,
		NextBlockID:  s.nextBlockID,
		NextColumnID: s.nextColumnID,
	}
}

func (s *EditorState) blockAt(slot int) Block {
	id, ok := s.Slots[slot]
	if !ok {
		return nil
	}
	b, ok := s.Block(id)
	if !ok {
		return nil
	}
	return cloneBlock(b)
}

// Deserialize rebuilds editor state from a stored template. Each text line
// becomes one row; the items line sets TableLine.
func Deserialize(t Template) *EditorState {
	s := &EditorState{
		Name:        t.Name,
		Description: t.Description,
		Tax:         t.Tax,
		Columns:     append([]Column(nil), t.Columns...),
		Slots:       make(map[int]int),
	}

	maxBlock, maxColumn := 0, 0
	place := func(b Block, slot int) {
		if b == nil {
			return
		}
		c := cloneBlock(b)
		s.Blocks = append(s.Blocks, c)
		s.Slots[slot] = c.BlockID()
		if c.BlockID() > maxBlock {
			maxBlock = c.BlockID()
		}
	}

	r := 1
	for _, l := range t.Lines {
		switch ln := l.(type) {
		case ItemsLine:
			s.TableLine = r
		case TextLine:
			place(ln.Left, leftSlot(r))
			place(ln.Right, rightSlot(r))
			r++
		}
	}
	if s.TableLine == 0 {
		s.TableLine = r
	}
	s.Rows = max(r-1, s.TableLine, DefaultRows)

	for _, c := range s.Columns {
		maxColumn = max(maxColumn, c.ID)
	}
	s.nextBlockID = max(t.NextBlockID, maxBlock+1, 1)
	s.nextColumnID = max(t.NextColumnID, maxColumn+1, 1)
	return s
}

// SortedSlots returns the occupied slots in ascending order.
func (s *EditorState) SortedSlots() []int {
	slots := make([]int, 0, len(s.Slots))
	for slot := range s.Slots {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	return slots
}
