// Package phpmd drives the PHPMD command line tool and turns its text
// report into diagnostics.
//
// The package is independent of any editor protocol. A Runner spawns
// the tool for one file, streams stdout through a LineBuffer and
// returns the collected diagnostics together with the exit code:
//
//	runner := phpmd.NewRunner(cfg)
//	res, err := runner.Run(ctx, "/src/Foo.php")
//	if errors.Is(err, phpmd.ErrSpawn) {
//		// executable missing or not runnable
//	}
//
// PHPMD exit codes:
//
//   - 0: no error and no rule violation
//   - 1: the tool failed with an error or exception
//   - 2: the code was processed and violations were found
//
// Codes 1 and 2 are not distinguished by Result.HasViolations.
package phpmd
