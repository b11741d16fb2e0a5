package views

import "testing"

func TestParseRecipients(t *testing.T) {
	ids, err := parseRecipients(" 1, 2,3 ,, 42 ")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 4 || ids[3] != 42 {
		t.Errorf("ids = %v", ids)
	}

	if _, err := parseRecipients("1, bob"); err == nil {
		t.Error("non-numeric recipient accepted")
	}

	ids, err = parseRecipients("")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("empty input should parse to no ids, got %v", ids)
	}
}
