package server

// Route path constants
const (
	// Anonymous only
	RouteLogin    = "/login"
	RouteRegister = "/register"

	RouteWelcome = "/welcome"
	RouteLogout  = "/logout"

	// Protected
	RouteUsers    = "/"
	RouteUsersCSV = "/users.csv"
)

// CSVFileName is the download name of the user export
const CSVFileName = "userdata.csv"
