// Command walcat opens a WAL directory with rosekv.New (which creates the
// directory if it is missing) and prints the directory, the segment
// extension and the WAL's lifetime write counters. Those counters start at
// zero for every opened WAL, so they read zero here; the segment roster is
// not listed. This is the manual-inspection tool spec.md §6 notes the core
// intentionally exposes no CLI for, so it lives outside the core package
// and carries no framework dependency, following the teacher's own main
// packages (gitcseme-wal-store/cmd/cli, ShubhamNegi4-DaemonDB), which are
// plain flag-based mains.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/divedb/rosekv"
)

func main() {
	dir := flag.String("dir", ".", "WAL directory")
	ext := flag.String("ext", ".seg", "segment file extension")
	flag.Parse()

	w, err := rosekv.New(
		rosekv.WithDirPath(*dir),
		rosekv.WithFileExt(*ext),
	)
	if err != nil {
		log.Fatalf("open %s: %v", *dir, err)
	}
	defer w.Close()

	stats := w.Stats()
	fmt.Printf("dir=%s ext=%s total_bytes_written=%d total_write_ops=%d\n",
		*dir, *ext, stats.TotalBytesWritten, stats.TotalWriteOps)
}
