package toml

import "testing"

func TestDeleteRemovesKeyAndMarksDeleted(t *testing.T) {
	tree, err := Parse("a = 1\nb = 2\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a := tree.Root.Get("a")
	if !Delete(a) {
		t.Fatalf("Delete(a) = false")
	}
	if !a.IsDeleted() {
		t.Fatalf("a.IsDeleted() = false after Delete")
	}
	if tree.Root.Get("a") != nil {
		t.Fatalf("deleted key still reachable via Get")
	}
	out := tree.Generate()
	if out != "b = 2\n" {
		t.Fatalf("Generate after delete = %q, want %q", out, "b = 2\n")
	}
}

func TestDeleteRootRefused(t *testing.T) {
	tree, _ := Parse("a = 1\n")
	if Delete(tree.Root) {
		t.Fatalf("Delete(root) must be refused")
	}
}

func TestDeleteTwiceIsNoop(t *testing.T) {
	tree, _ := Parse("a = 1\n")
	a := tree.Root.Get("a")
	if !Delete(a) {
		t.Fatalf("first Delete must succeed")
	}
	if Delete(a) {
		t.Fatalf("second Delete must report false")
	}
}

func TestRenameKey(t *testing.T) {
	tree, _ := Parse("a = 1\nb = 2\n")
	a := tree.Root.Get("a")
	if !Rename(a, "z", "z") {
		t.Fatalf("Rename failed")
	}
	if tree.Root.Get("a") != nil {
		t.Fatalf("old name still resolves")
	}
	if tree.Root.Get("z") != a {
		t.Fatalf("new name does not resolve to the renamed node")
	}
	out := tree.Generate()
	if out != "z = 1\nb = 2\n" {
		t.Fatalf("Generate after rename = %q", out)
	}
}

func TestRenameCollisionRefused(t *testing.T) {
	tree, _ := Parse("a = 1\nb = 2\n")
	a := tree.Root.Get("a")
	if Rename(a, "b", "b") {
		t.Fatalf("Rename onto an existing key must be refused")
	}
}

func TestChangeValue(t *testing.T) {
	tree, _ := Parse("a = 1\n")
	a := tree.Root.Get("a")
	if !ChangeValue(a, int64(42)) {
		t.Fatalf("ChangeValue failed")
	}
	out := tree.Generate()
	if out != "a = 42\n" {
		t.Fatalf("Generate after ChangeValue = %q", out)
	}
}

func TestChangeValueTypeMismatchRefused(t *testing.T) {
	tree, _ := Parse("a = 1\n")
	a := tree.Root.Get("a")
	if ChangeValue(a, "not an int") {
		t.Fatalf("ChangeValue must refuse a value of the wrong Go type")
	}
}

func TestInsertKeyAndGenerate(t *testing.T) {
	tree, _ := Parse("a = 1\n")
	ok := InsertKey(tree.Root, "b", "b", NewScalar(KindInteger, int64(2)))
	if !ok {
		t.Fatalf("InsertKey failed")
	}
	out := tree.Generate()
	if out != "a = 1\nb = 2\n" {
		t.Fatalf("Generate after InsertKey = %q", out)
	}
}

func TestInsertKeyCollisionRefused(t *testing.T) {
	tree, _ := Parse("a = 1\n")
	if InsertKey(tree.Root, "a", "a", NewScalar(KindInteger, int64(9))) {
		t.Fatalf("InsertKey must refuse a duplicate name")
	}
}

func TestMoveUpDownReordersEmission(t *testing.T) {
	tree, _ := Parse("a = 1\nb = 2\nc = 3\n")
	b := tree.Root.Get("b")
	if !MoveUp(b) {
		t.Fatalf("MoveUp failed")
	}
	out := tree.Generate()
	if out != "b = 2\na = 1\nc = 3\n" {
		t.Fatalf("Generate after MoveUp = %q", out)
	}
	if !MoveDown(b) {
		t.Fatalf("MoveDown failed")
	}
	out = tree.Generate()
	if out != "a = 1\nb = 2\nc = 3\n" {
		t.Fatalf("Generate after MoveDown = %q", out)
	}
}

func TestMoveUpAtFrontRefused(t *testing.T) {
	tree, _ := Parse("a = 1\nb = 2\n")
	a := tree.Root.Get("a")
	if MoveUp(a) {
		t.Fatalf("MoveUp on the first entry must be refused")
	}
}

func TestMoveDownAtEndRefused(t *testing.T) {
	tree, _ := Parse("a = 1\nb = 2\n")
	b := tree.Root.Get("b")
	if MoveDown(b) {
		t.Fatalf("MoveDown on the last entry must be refused")
	}
}

func TestInsertElementIntoArray(t *testing.T) {
	tree, _ := Parse("values = [1, 2]\n")
	arr := tree.Root.Get("values")
	if !InsertElement(arr, NewScalar(KindInteger, int64(3))) {
		t.Fatalf("InsertElement failed")
	}
	out := tree.Generate()
	if out != "values = [1, 2, 3]\n" {
		t.Fatalf("Generate after InsertElement = %q", out)
	}
}
