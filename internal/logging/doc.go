// Package logging provides structured JSON logging for roadmap operations.
//
// It wraps log/slog. Loggers carry persistent attributes so every line of an
// operation can be traced back to the document, node and batch it concerned:
//
//	logger, err := logging.NewLogger(dir, "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.WithObjective("acme/app#12").WithBatch(batchID)
//	log.WithNode("1.2").Info("node updated", "status", "planning")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"node updated","objective":"acme/app#12","batch_id":"...","node_id":"1.2","status":"planning"}
//
// With an empty directory, logs go to stderr. With a directory, they go to
// roadmap.log inside it, rotated by size through [RotatingWriter].
package logging
