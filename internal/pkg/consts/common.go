package consts

// gin.Context 中的键
const (
	CtxUserID = "user_id"
	CtxRoles  = "roles"
)

const (
	DefaultPage = 1
)
