// cmd/main.go
package main

import (
	"workforce-api/app"
)

// @title           Workforce API
// @version         1.0
// @description     HR service with token revocation, abuse detection, duplicate prevention and audit logging.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
