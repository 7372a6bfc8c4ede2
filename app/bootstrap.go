// app/bootstrap.go
package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"papermill_reel_tracker/config"
)

// IssuerTokenHeader carries the shared secret of the identity service when
// it opens sessions on behalf of verified users.
const IssuerTokenHeader = "X-Issuer-Token"

// EnsureIssuerToken generates a one-off issuer token when none is
// configured, so a fresh install can open its first sessions. The token is
// written once to out, never to the log, and lives only as long as the
// process.
func EnsureIssuerToken(cfg *config.Config, log *slog.Logger, out io.Writer) {
	if cfg.SessionIssuerToken != "" {
		return
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Error("bootstrap issuer token", "error", err)
		return
	}
	cfg.SessionIssuerToken = hex.EncodeToString(buf)
	log.Warn("SESSION_ISSUER_TOKEN not set, generated a temporary one", "header", IssuerTokenHeader)
	fmt.Fprintf(out, "temporary %s: %s\n", IssuerTokenHeader, cfg.SessionIssuerToken)
}
