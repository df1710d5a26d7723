package gosearch

const (
	NoLimit      = -1
	MaxLimit     = 100
	DefaultLimit = 10
)

// IsNormalizedLimitMax clamps limit to maxLimit. The boolean reports whether
// the limit was accepted unchanged. Non-positive limits are rejected rather
// than replaced with a default: a zero page size must never turn into
// "return everything".
func IsNormalizedLimitMax(limit int, maxLimit int) (int, bool, error) {
	if limit <= 0 {
		return 0, false, invalidArgumentf("limit must be positive, got %d", limit)
	}

	if maxLimit > 0 && limit > maxLimit {
		return maxLimit, false, nil
	}

	return limit, true, nil
}

func NormalizeLimitMax(limit int, maxLimit int) (int, error) {
	ret, _, err := IsNormalizedLimitMax(limit, maxLimit)
	return ret, err
}

func NormalizeLimit(limit int) (int, error) {
	return NormalizeLimitMax(limit, MaxLimit)
}
