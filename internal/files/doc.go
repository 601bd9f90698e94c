// Package files finds credit report workbooks on disk.
//
// Discovery lists the .xlsx reports in a directory or expands a mix of
// file and directory arguments, skipping spreadsheet lock files. Watcher
// follows a directory with fsnotify and hands over each workbook once it
// stops changing. Archiver moves processed reports aside.
//
// Example usage:
//
//	discovery := files.NewDiscovery("", logger)
//	reports, err := discovery.Resolve(args...)
//
//	w, err := files.NewWatcher(inDir, files.DefaultSettle, logger)
//	if err != nil {
//		return err
//	}
//	err = w.Run(ctx, func(ctx context.Context, f files.FileInfo) {
//		// score f.Path
//	})
package files
