package audit

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
)

// sysConfigKeys are the environment variables folded into the system
// configuration hash. A variable that is unset hashes as null, so
// "unset" and "empty" drift both surface at replay time.
var sysConfigKeys = []string{
	"ENGINE_VERSION",
	"POLICY_SNAPSHOT_VERSION",
	"RISK_THRESHOLD",
}

// SystemConfigHash digests the runtime configuration relevant to
// decision reproducibility. Replay refuses to proceed when the current
// hash differs from the one pinned in the record.
func SystemConfigHash() (string, error) {
	env := make(map[string]any, len(sysConfigKeys))
	for _, k := range sysConfigKeys {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		} else {
			env[k] = nil
		}
	}
	canon, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("audit: system config hash: %w", err)
	}
	sum := sha256.Sum256(canon)
	return fmt.Sprintf("%s%x", hashPrefix, sum), nil
}
