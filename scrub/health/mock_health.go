package health

import "context"

type MockHealthChecker struct {
	DbOk          bool
	EligibilityOk bool
}

func (m MockHealthChecker) IsDatabaseOK(ctx context.Context) (string, bool) {
	if m.DbOk {
		return "ok", true
	}
	return "database ping error", false
}

func (m MockHealthChecker) IsEligibilityOK(ctx context.Context) (string, bool) {
	if m.EligibilityOk {
		return "ok", true
	}
	return "eligibility service unreachable", false
}
