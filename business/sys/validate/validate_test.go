package validate_test

import (
	"testing"

	"github.com/ardanlabs/minichain/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type model struct {
	Author  string `json:"author" validate:"required,notblank"`
	Content string `json:"content" validate:"required"`
}

func Test_Check(t *testing.T) {
	type table struct {
		name   string
		val    model
		fields []string
	}

	tt := []table{
		{name: "valid", val: model{Author: "alice", Content: "hi"}},
		{name: "missing", val: model{}, fields: []string{"author", "content"}},
		{name: "blank", val: model{Author: "  ", Content: "hi"}, fields: []string{"author"}},
	}

	t.Log("Given the need to validate request models.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %q model.", testID, tst.name)
				{
					err := validate.Check(tst.val)

					if len(tst.fields) == 0 {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
						return
					}

					if !validate.IsFieldErrors(err) {
						t.Fatalf("\t%s\tTest %d:\tShould get back field errors: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get back field errors.", success, testID)

					fields := validate.GetFieldErrors(err).Fields()
					if len(fields) != len(tst.fields) {
						t.Fatalf("\t%s\tTest %d:\tShould get back %d field errors, got %v.", failed, testID, len(tst.fields), fields)
					}
					for _, name := range tst.fields {
						if _, exists := fields[name]; !exists {
							t.Fatalf("\t%s\tTest %d:\tShould report field %q, got %v.", failed, testID, name, fields)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould report the failing fields by json name.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
