package shading

import "testing"

func TestParseShadingsSingleLayer(t *testing.T) {
	s, err := ParseShadings("oblique,303030ff,315,45")
	if err != nil {
		t.Fatalf("ParseShadings: %v", err)
	}
	if len(s) != 1 {
		t.Fatalf("len = %d, want 1", len(s))
	}
	if s[0].Method.Kind != Oblique || s[0].Method.Azimuth != 315 || s[0].Method.Altitude != 45 {
		t.Errorf("got %+v", s[0].Method)
	}
	if s[0].Color.R != 0x30 || s[0].Color.G != 0x30 || s[0].Color.B != 0x30 || s[0].Color.A != 0xff {
		t.Errorf("color = %+v", s[0].Color)
	}
}

func TestParseShadingsMultiLayer(t *testing.T) {
	s, err := ParseShadings("igor,ff4455ff,120+slope,00000088,60")
	if err != nil {
		t.Fatalf("ParseShadings: %v", err)
	}
	if len(s) != 2 {
		t.Fatalf("len = %d, want 2", len(s))
	}
	if s[0].Method.Kind != Igor || s[1].Method.Kind != Slope {
		t.Errorf("kinds = %v, %v", s[0].Method.Kind, s[1].Method.Kind)
	}
}

func TestParseShadingsRejectsUnknownMethod(t *testing.T) {
	if _, err := ParseShadings("bogus,ffffffff,1"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestParseShadingsRejectsWrongArity(t *testing.T) {
	if _, err := ParseShadings("oblique,ffffffff,315"); err == nil {
		t.Fatal("expected error for missing altitude param")
	}
}

func TestParseShadingsRejectsBadColor(t *testing.T) {
	if _, err := ParseShadings("igor,nothex,120"); err == nil {
		t.Fatal("expected error for invalid hex color")
	}
}
