package verify

import "fmt"

// HTMLFile renders the downloadable challenge file. The token appears twice,
// as visible text and as a meta tag, so scrapers that only read one of the
// two still find it.
func HTMLFile(token string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="dealersite-verification" content="%s">
  <title>Dealersite Domain Verification</title>
</head>
<body>
  <h1>Dealersite Domain Verification</h1>
  <p>This file proves ownership of this domain for the Dealersite platform.</p>
  <p>Verification token: %s</p>
  <p>You can delete this file once your domain is connected.</p>
</body>
</html>
`, token, token)
}
