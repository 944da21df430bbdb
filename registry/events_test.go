package registry

import (
	"errors"
	"testing"

	"github.com/wfunc/gamehub/game"
)

func TestDecodeUseHint(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want UseHint
		ok   bool
	}{
		{"both coordinates", `{"row":4,"col":7}`, UseHint{Row: 4, Col: 7}, true},
		{"zero is a real coordinate", `{"row":0,"col":0}`, UseHint{}, true},
		{"empty object", `{}`, UseHint{}, false},
		{"missing col", `{"row":3}`, UseHint{}, false},
		{"null row", `{"row":null,"col":1}`, UseHint{}, false},
		{"not json", `{row`, UseHint{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeUseHint([]byte(tc.raw))
			if !tc.ok {
				if !errors.Is(err, game.ErrInvalidRequest) {
					t.Fatalf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestDecodePlaceShip(t *testing.T) {
	full := `{"shipName":"carrier","startRow":0,"startCol":0,"orientation":"vertical"}`
	got, err := DecodePlaceShip([]byte(full))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := PlaceShip{ShipName: "carrier", Orientation: "vertical"}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	for _, raw := range []string{
		`{}`,
		`{"startRow":1,"startCol":1,"orientation":"horizontal"}`,
		`{"shipName":"carrier","startCol":1,"orientation":"horizontal"}`,
		`{"shipName":"carrier","startRow":1,"orientation":"horizontal"}`,
		`{"shipName":"carrier","startRow":1,"startCol":1}`,
		`[]`,
	} {
		if _, err := DecodePlaceShip([]byte(raw)); !errors.Is(err, game.ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", raw, err)
		}
	}
}
