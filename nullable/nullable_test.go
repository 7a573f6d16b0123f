package nullable

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStringJSON(t *testing.T) {
	b, _ := json.Marshal([]String{StringOf(""), StringOf("/download/x.pdf")})
	if string(b) != `[null,"/download/x.pdf"]` {
		t.Errorf("marshal = %s", b)
	}
	var got []String
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got[0].Valid || got[1].ForceValue() != "/download/x.pdf" {
		t.Errorf("unmarshal = %+v", got)
	}
}

func TestTimeJSON(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("KST", 9*3600))
	b, _ := json.Marshal(struct {
		A Time `json:"a"`
		B Time `json:"b"`
	}{A: TimeOf(at)})
	if string(b) != `{"a":"2025-03-01T03:00:00Z","b":null}` {
		t.Errorf("marshal = %s", b)
	}
	var n Time
	if err := json.Unmarshal([]byte(`"2025-03-01T03:00:00Z"`), &n); err != nil || !n.Time.Equal(at) {
		t.Errorf("unmarshal = %v, %v", n.Time, err)
	}
	if err := json.Unmarshal([]byte(`null`), &n); err != nil || !n.IsNil() {
		t.Errorf("null = %+v, %v", n, err)
	}
	if err := json.Unmarshal([]byte(`"yesterday"`), &n); err == nil {
		t.Error("accepted a bad timestamp")
	}
}
