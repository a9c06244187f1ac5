package pkgset

import "testing"

func TestPackageEqualIgnoresFlags(t *testing.T) {
	a := Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64"}
	b := a
	b.Mandatory = true
	b.Unwanted = true
	b.Local = true

	if !a.Equal(b) {
		t.Error("Equality must never consider the override flags")
	}

	c := a
	c.Arch = "i686"
	if a.Equal(c) {
		t.Error("Architecture participates in equality")
	}

	d := a
	d.Release = "2"
	if a.Equal(d) {
		t.Error("Release participates in equality")
	}
}

func TestOperationKindValidate(t *testing.T) {
	for _, k := range []OperationKind{OperationDelete, OperationInstall, OperationReplace, OperationNothing} {
		if err := k.Validate(); err != nil {
			t.Errorf("Expected %s to validate, got: %v", k, err)
		}
	}
	if err := OperationKind("upgrade").Validate(); err == nil {
		t.Error("Expected unknown kind to fail validation")
	}
}

func TestOperationPackages(t *testing.T) {
	foo := Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64"}
	bar := Package{Name: "bar", Version: "2.0", Release: "1", Arch: "x86_64"}

	if got := NewDelete(foo).Packages(); len(got) != 1 || !got[0].Equal(foo) {
		t.Errorf("Delete must carry its sources, got %v", got)
	}
	if got := NewInstall(bar).Packages(); len(got) != 1 || !got[0].Equal(bar) {
		t.Errorf("Install must carry its targets, got %v", got)
	}
	if got := NewReplace([]Package{foo}, []Package{bar}).Packages(); got != nil {
		t.Errorf("Replace has no single package list, got %v", got)
	}
}
