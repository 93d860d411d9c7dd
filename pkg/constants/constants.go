// pkg/constants/constants.go
package constants

//============== РОЛИ ==============

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
)

func (r Role) String() string { return string(r) }

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleManager:
		return true
	}
	return false
}

//============== ТИПЫ ОБСЛУЖИВАНИЯ ==============

type ServiceType string

const (
	ServiceLunch        ServiceType = "LUNCH"
	ServiceCompensation ServiceType = "COMPENSATION"
)

//============== СМЕНЫ ==============

const (
	ShiftDay   = "DAY"
	ShiftNight = "NIGHT"
)

//============== CACHE KEYS ==============

// Префиксы для ключей в Redis.
const (
	// login_attempts:<userID> -> количество неудачных попыток входа
	CacheKeyLoginAttempts = "login_attempts:%d"
	// lockout:<userID> -> флаг блокировки
	CacheKeyLockout = "lockout:%d"
	// revoked_jti:<jti> -> отозванный refresh-токен
	CacheKeyRevokedJTI = "revoked_jti:%s"
	// business_config:all -> JSON со всеми настройками
	CacheKeyBusinessConfig = "business_config:all"
	// dashboard:<companyID>:<projectID> -> JSON статистики (projectID = 0 для всей компании)
	CacheKeyDashboard = "dashboard:%d:%d"
)

//============== COOKIES ==============

const (
	CookieAccessToken  = "X-Access-Token"
	CookieRefreshToken = "X-Refresh-Token"
)
