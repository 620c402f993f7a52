package http

import (
	"net/http"
	"strings"

	"anchord/internal/domain"
	cryptoinfra "anchord/internal/infra/crypto"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "X-Api-Key"

// callerAddress resolves the submitted API key to the caller's address:
// the last 20 bytes of Keccak-256 over the key. The engine below this layer
// only ever sees explicit addresses; whoever initialized the service owns
// the address their key derives to, and ownership checks fail closed for
// requests without a key.
func callerAddress(c *gin.Context) (domain.Address, bool) {
	key := strings.TrimSpace(c.GetHeader(apiKeyHeader))
	if key == "" {
		return domain.ZeroAddress, false
	}
	sum := cryptoinfra.Keccak256([]byte(key))
	var addr domain.Address
	copy(addr[:], sum[12:])
	return addr, true
}

func (s *Server) requireCaller(c *gin.Context) (domain.Address, bool) {
	caller, ok := callerAddress(c)
	if !ok {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "api key required")
		return domain.ZeroAddress, false
	}
	return caller, true
}
