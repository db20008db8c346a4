package auth

// GetPermissionModel 获取 OpenFGA 权限模型定义
func GetPermissionModel() string {
	return `model
  schema 1.1

type user

type plan
  relations
    define owner: [user]
    define viewer: [user]
    define editor: [user] or owner

type application
  relations
    define applicant: [user]
    define reviewer: [user]
    define admin: [user]
    define viewer: [user] or applicant or reviewer or admin
    define operator: [user] or applicant or reviewer or admin`
}
