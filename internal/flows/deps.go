package flows

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow runner.
type Deps struct {
	Validate ValidateDeps
	Refresh  RefreshDeps
	Logout   LogoutDeps
	Revoke   RevokeDeps
	Login    LoginDeps
}
