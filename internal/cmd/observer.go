package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/jra3/photosync/internal/model"
	"github.com/jra3/photosync/internal/observer"
)

// cliObserver prints export progress to stderr. On a TTY it rewrites a
// single line with \r; piped output (logs, CI) gets one line per update
// instead, since \r is meaningless there.
type cliObserver struct {
	tty bool
}

func newCLIObserver() *cliObserver {
	return &cliObserver{tty: isatty.IsTerminal(os.Stderr.Fd())}
}

func (o *cliObserver) SetExportProgress(p observer.Progress) {
	line := fmt.Sprintf("exported %d/%d (failed %d)", p.Success, p.Total, p.Failed)
	if o.tty {
		fmt.Fprintf(os.Stderr, "\r%s", line)
		return
	}
	fmt.Fprintln(os.Stderr, line)
}

func (o *cliObserver) SetExportStage(stage model.ExportStage) {
	if o.tty {
		fmt.Fprintln(os.Stderr)
	}
	fmt.Fprintf(os.Stderr, "stage: %s\n", stage)
}

func (o *cliObserver) SetLastExportTime(epochMs int64) {}

func (o *cliObserver) SetPendingExports(files int) {
	fmt.Fprintf(os.Stderr, "pending: %d files\n", files)
}
