package params

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/oshost/internal/domain"
)

func TestRequire_AllPresent(t *testing.T) {
	bag := Bag{"region": "r1", "instance": Bag{}}
	if err := Require(bag, []string{"region", "instance"}, "nova_config"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestRequire_NamesMissingKeyAndRequiredSet(t *testing.T) {
	required := []string{"name", "flavor", "image", "key_name"}

	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			bag := Bag{"name": "vm1", "flavor": "f1", "image": "img1", "key_name": "k1"}
			delete(bag, missing)

			err := Require(bag, required, "nova_config.instance")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, domain.ErrMissingParameter) {
				t.Errorf("expected ErrMissingParameter, got %v", err)
			}

			var mpe *MissingParameterError
			if !errors.As(err, &mpe) {
				t.Fatalf("expected *MissingParameterError, got %T", err)
			}
			if mpe.Key != missing {
				t.Errorf("expected Key %q, got %q", missing, mpe.Key)
			}
			if mpe.Where != "nova_config.instance" {
				t.Errorf("expected Where %q, got %q", "nova_config.instance", mpe.Where)
			}
			if diff := cmp.Diff(required, mpe.Required); diff != "" {
				t.Errorf("required set mismatch (-want +got):\n%s", diff)
			}
			if !strings.Contains(err.Error(), `"`+missing+`"`) {
				t.Errorf("expected message to name %q, got %q", missing, err.Error())
			}
			if !strings.Contains(err.Error(), "name, flavor, image, key_name") {
				t.Errorf("expected message to list the required set, got %q", err.Error())
			}
		})
	}
}

func TestRequire_FirstAbsentKeyWins(t *testing.T) {
	err := Require(Bag{}, []string{"region", "instance"}, "nova_config")

	var mpe *MissingParameterError
	if !errors.As(err, &mpe) {
		t.Fatalf("expected *MissingParameterError, got %v", err)
	}
	if mpe.Key != "region" {
		t.Errorf("expected first missing key 'region', got %q", mpe.Key)
	}
}

func TestRequire_NilValueCountsAsPresent(t *testing.T) {
	if err := Require(Bag{"region": nil}, []string{"region"}, "nova_config"); err != nil {
		t.Errorf("expected key with nil value to be present, got %v", err)
	}
}

func TestMap(t *testing.T) {
	bag := Bag{"instance": map[string]any{"name": "vm1"}, "region": "r1"}

	got, err := Map(bag, "instance", "nova_config")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got["name"] != "vm1" {
		t.Errorf("expected name 'vm1', got %v", got["name"])
	}

	_, err = Map(bag, "region", "nova_config")
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for non-mapping value, got %v", err)
	}

	_, err = Map(bag, "missing", "nova_config")
	if !errors.Is(err, domain.ErrMissingParameter) {
		t.Errorf("expected ErrMissingParameter, got %v", err)
	}
}

func TestString(t *testing.T) {
	bag := Bag{"name": "vm1", "count": 3}

	got, err := String(bag, "name", "x")
	if err != nil || got != "vm1" {
		t.Errorf("expected 'vm1', got %q (err=%v)", got, err)
	}

	if _, err := String(bag, "count", "x"); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestClone_IsDeep(t *testing.T) {
	orig := Bag{
		"instance": Bag{"meta": Bag{"a": "1"}},
		"list":     []any{Bag{"x": 1}},
	}
	c := Clone(orig)

	c["instance"].(Bag)["meta"].(Bag)["a"] = "changed"
	c["list"].([]any)[0].(Bag)["x"] = 2

	if orig["instance"].(Bag)["meta"].(Bag)["a"] != "1" {
		t.Error("expected nested map to be copied")
	}
	if orig["list"].([]any)[0].(Bag)["x"] != 1 {
		t.Error("expected nested list to be copied")
	}
}
