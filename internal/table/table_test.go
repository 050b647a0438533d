package table

import (
	"testing"
)

func TestFromRecordsTyping(t *testing.T) {
	header := []string{"Image", "Mean", "Sparse", "Mixed", "Empty"}
	records := [][]string{
		{"img1.tiff", "1.5", "", "3", ""},
		{"img2.tiff", "2.25", "7", "n/a", ""},
		{"img3.tiff", "3", "", "5", ""},
	}
	tbl := FromRecords(header, records)

	if got := tbl.NumRows(); got != 3 {
		t.Fatalf("NumRows() = %d, want 3", got)
	}
	if got := tbl.NumCols(); got != 5 {
		t.Fatalf("NumCols() = %d, want 5", got)
	}

	t.Run("text stays text", func(t *testing.T) {
		c, _ := tbl.Lookup("Image")
		if c.IsNumeric() {
			t.Error("Image should be textual")
		}
		if c.Text[1] != "img2.tiff" {
			t.Errorf("Text[1] = %q", c.Text[1])
		}
	})
	t.Run("all numeric becomes float", func(t *testing.T) {
		c, _ := tbl.Lookup("Mean")
		if !c.IsNumeric() {
			t.Fatal("Mean should be numeric")
		}
		if c.Float[1] != 2.25 {
			t.Errorf("Float[1] = %v", c.Float[1])
		}
		if c.HasMissing() {
			t.Error("Mean should have no missing values")
		}
	})
	t.Run("empty cells become missing", func(t *testing.T) {
		c, _ := tbl.Lookup("Sparse")
		if !c.IsNumeric() {
			t.Fatal("Sparse should be numeric")
		}
		if !c.IsMissing(0) || c.IsMissing(1) || !c.IsMissing(2) {
			t.Errorf("Missing = %v", c.Missing)
		}
		if c.Float[1] != 7 {
			t.Errorf("Float[1] = %v", c.Float[1])
		}
	})
	t.Run("one bad cell keeps column textual", func(t *testing.T) {
		c, _ := tbl.Lookup("Mixed")
		if c.IsNumeric() {
			t.Error("Mixed should be textual")
		}
	})
	t.Run("all empty stays textual", func(t *testing.T) {
		c, _ := tbl.Lookup("Empty")
		if c.IsNumeric() {
			t.Error("Empty should be textual")
		}
		if !c.IsMissing(0) {
			t.Error("empty cell should be missing")
		}
	})
}

func TestFromRecordsShortRows(t *testing.T) {
	tbl := FromRecords([]string{"A", "B"}, [][]string{
		{"1", "2"},
		{"3"},
	})
	b, _ := tbl.Lookup("B")
	if !b.IsNumeric() {
		t.Fatal("B should be numeric")
	}
	if !b.IsMissing(1) {
		t.Error("short row should pad with missing")
	}
}

func TestCellFormatting(t *testing.T) {
	c := NewFloatColumn("v", 3)
	c.Float[0], c.Missing[0] = 0.3906, false
	c.Float[2], c.Missing[2] = 42, false

	if got := c.Cell(0); got != "0.3906" {
		t.Errorf("Cell(0) = %q", got)
	}
	if got := c.Cell(1); got != "" {
		t.Errorf("Cell(1) = %q, want empty", got)
	}
	if got := c.Cell(2); got != "42" {
		t.Errorf("Cell(2) = %q", got)
	}
}

func TestTableMutations(t *testing.T) {
	tbl := FromRecords([]string{"A", "B", "C"}, [][]string{{"1", "x", "2"}})

	if err := tbl.InsertAt(1, NewTextColumn("D", 1)); err != nil {
		t.Fatal(err)
	}
	wantOrder := []string{"A", "D", "B", "C"}
	for i, name := range wantOrder {
		if tbl.Col(i).Name != name {
			t.Fatalf("after insert, Names() = %v", tbl.Names())
		}
	}

	tbl.RemoveAt(2)
	if tbl.Index("B") != -1 {
		t.Error("B should be removed")
	}
	if !tbl.Remove("D") {
		t.Error("Remove(D) should report true")
	}
	if tbl.Remove("D") {
		t.Error("second Remove(D) should report false")
	}

	if err := tbl.Append(NewFloatColumn("E", 2)); err == nil {
		t.Error("appending a mis-sized column should fail")
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl := FromRecords([]string{"A"}, [][]string{{"1"}, {"2"}})
	cp := tbl.Clone()
	cp.Col(0).Float[0] = 99
	if tbl.Col(0).Float[0] == 99 {
		t.Error("Clone shares backing storage")
	}
}

func TestSelect(t *testing.T) {
	tbl := FromRecords([]string{"A", "B"}, [][]string{{"1", "2"}})
	sub, err := tbl.Select([]string{"B"})
	if err != nil {
		t.Fatal(err)
	}
	if sub.NumCols() != 1 || sub.Col(0).Name != "B" {
		t.Errorf("Select = %v", sub.Names())
	}
	if _, err := tbl.Select([]string{"Z"}); err == nil {
		t.Error("Select of unknown column should fail")
	}
}
