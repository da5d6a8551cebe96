package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTransactionType(t *testing.T) {
	tests := []struct {
		tx   Transaction
		want string
	}{
		{Transaction{To: "t8juvewcui", Value: 25}, TxMined},
		{Transaction{From: "t8juvewcui", To: "tuf03bap3u"}, TxTransfer},
		{Transaction{From: "t8juvewcui", To: RecipientName, Name: "example"}, TxNamePurchase},
		{Transaction{From: "t8juvewcui", To: RecipientARecord, Name: "example"}, TxNameARecord},
		{Transaction{From: "t8juvewcui", To: "tuf03bap3u", Name: "example"}, TxNameTransfer},
		{Transaction{From: RecipientStaking, To: "t8juvewcui"}, TxStaking},
		{Transaction{From: "t8juvewcui", To: RecipientStaking}, TxStaking},
	}
	for i, tt := range tests {
		if got := tt.tx.Type(); got != tt.want {
			t.Errorf("case %d: Type() = %s, want %s", i, got, tt.want)
		}
	}
}

func TestTransactionViewNulls(t *testing.T) {
	tx := Transaction{ID: 7, To: "t8juvewcui", Value: 25, Time: time.Unix(1000, 0).UTC()}
	out, err := json.Marshal(tx.View())
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, `"from":null`) {
		t.Errorf("mined view must null the sender: %s", s)
	}
	if !strings.Contains(s, `"type":"mined"`) {
		t.Errorf("view must carry the derived type: %s", s)
	}
}

func TestBlockViewShortHash(t *testing.T) {
	b := Block{Hash: "000000012345abcdef000000"}
	if got := b.View().ShortHash; got != "000000012345" {
		t.Errorf("ShortHash = %s", got)
	}
}

func TestAddressViewHidesAuth(t *testing.T) {
	a := Address{Address: "t8juvewcui", Auth: "secretdigest", Balance: 10, FirstSeen: time.Now()}
	out, err := json.Marshal(a.View(nil))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "secretdigest") {
		t.Fatal("address view leaked the auth digest")
	}
}
