package value

import "testing"

func TestArrayGetOutOfRange(t *testing.T) {
	a := &Array{}
	if got := a.Get(5); got.Kind != KindUndefined {
		t.Errorf("Get out of range = %v, want Undefined", got)
	}
}

func TestArraySetPadsWithUndefined(t *testing.T) {
	a := &Array{}
	a.Set(2, Number(9))
	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}
	if a.Get(0).Kind != KindUndefined || a.Get(1).Kind != KindUndefined {
		t.Error("Set beyond current length must pad intervening slots with Undefined")
	}
	if a.Get(2).AsNumber() != 9 {
		t.Error("Set must write the target index")
	}
}

func TestArrayPush(t *testing.T) {
	a := &Array{}
	if n := a.Push(Number(1)); n != 1 {
		t.Errorf("Push returned %d, want 1", n)
	}
	a.Push(Number(2))
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
}

func TestArrayNilReceiverIsEmpty(t *testing.T) {
	var a *Array
	if a.Len() != 0 {
		t.Error("nil *Array must report Len 0")
	}
	if a.Get(0).Kind != KindUndefined {
		t.Error("nil *Array must return Undefined from Get")
	}
}
