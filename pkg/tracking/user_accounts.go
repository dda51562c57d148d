package tracking

// UserAccountsID identifies the built-in user account tracker
const UserAccountsID = "user_accounts"

// NewUserAccounts reports every aggregate of m as a gauge
func NewUserAccounts(m *Metrics) *StaticTracker {
	return NewStaticTracker(UserAccountsID, []Metric{
		{Name: "users.new_this_month", Source: CountFunc(m.NewUsersCount)},
		{Name: "users.active.daily", Source: CountFunc(m.DailyActiveUsersCount)},
		{Name: "users.active.monthly", Source: CountFunc(m.MonthlyActiveUsersCount)},
		{Name: "users.active.last_month", Source: CountFunc(m.LastMonthUsersCount)},
		{Name: "users.active.returning_this_month", Source: CountFunc(m.ReturningUsersCount)},
		{Name: "users.churned", Source: CountFunc(m.ChurnedUsersCount)},
		{Name: "users.retention_rate", Source: Func(m.RetentionRate)},
		{Name: "users.churn_rate", Source: Func(m.ChurnRate)},
		{Name: "users.average_duration", Source: Func(m.UserDurationAverage)},
		{Name: "users.engagement_ratio", Source: Func(m.EngagementRatio)},
	}, nil)
}

// DefaultRegistry returns a registry with the built-in trackers
func DefaultRegistry(m *Metrics) *Registry {
	r := NewRegistry()
	r.Register(UserAccountsID, func() (Tracker, error) {
		return NewUserAccounts(m), nil
	})
	return r
}
