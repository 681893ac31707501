package models

// RoleUser is assigned to every account at registration.
const RoleUser = "ROLE_USER"
