package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Load(t *testing.T) {
	t.Log("Given the need to load the genesis file.")
	{
		t.Logf("\tTest 0:\tWhen handling a genesis file with a date.")
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			data := []byte(`{"date":"2024-01-01T00:00:00Z","difficulty":2}`)
			if err := os.WriteFile(path, data, 0600); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the file: %v", failed, err)
			}

			gen, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load the file: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to load the file.", success)

			if gen.Difficulty != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould get back difficulty 2, got %d.", failed, gen.Difficulty)
			}
			t.Logf("\t%s\tTest 0:\tShould get back difficulty 2.", success)

			b1, b2 := gen.Block(), gen.Block()
			if b1.Hash != b2.Hash || b1.TimeStamp != gen.Date.UnixMilli() {
				t.Fatalf("\t%s\tTest 0:\tShould get the same genesis block every time.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get the same genesis block every time.", success)

			if b1.Index != 0 || len(b1.Transactions) != 0 || b1.PreviousHash != database.GenesisPrevHash {
				t.Fatalf("\t%s\tTest 0:\tShould get a proper genesis block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get a proper genesis block.", success)
		}

		t.Logf("\tTest 1:\tWhen the genesis file is missing.")
		{
			if _, err := genesis.Load(filepath.Join(t.TempDir(), "none.json")); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould get back an error.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould get back an error.", success)

			if genesis.Default().Difficulty != genesis.DefaultDifficulty {
				t.Fatalf("\t%s\tTest 1:\tShould get back the default difficulty.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould get back the default difficulty.", success)
		}
	}
}
