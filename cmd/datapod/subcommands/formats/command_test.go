package formats_test

import (
	"context"
	"testing"

	"github.com/opst/datapod/cmd/datapod/subcommands/formats"
	"github.com/opst/datapod/cmd/datapod/subcommands/internal/commandline"
	"github.com/opst/datapod/pkg/drivers"
)

func TestFormats(t *testing.T) {
	cl := commandline.New("datapod formats", struct{}{})
	if err := formats.Task(drivers.Default())(context.Background(), cl, nil); err != nil {
		t.Fatal(err)
	}

	want := `dict/json
dict/yaml
list/text
model/msgpack
tabular/csv
tabular/parquet
`
	if got := cl.Out.String(); got != want {
		t.Errorf("unexpected output:\n===actual===\n%s\n===expected===\n%s", got, want)
	}
}
