// Command credctl is the administrator's console for a running registry. It
// covers the operational tasks that do not belong in application code:
// whitelisting institutions, transferring the admin role, revoking
// credentials, and inspecting registry state.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"credchain/internal/registry/models"
)

const defaultBaseURL = "http://localhost:8080"

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "whitelist":
		err = whitelistCmd(os.Args[2:])
	case "remove":
		err = removeCmd(os.Args[2:])
	case "transfer-admin":
		err = transferAdminCmd(os.Args[2:])
	case "revoke":
		err = revokeCmd(os.Args[2:])
	case "status":
		err = statusCmd(os.Args[2:])
	default:
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "credctl:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: credctl <command> [flags]

commands:
  whitelist       -issuer 0x... [-name "University"]   whitelist an institution
  remove          -issuer 0x...                        delist an institution
  transfer-admin  -to 0x...                            hand the admin role over
  revoke          -id CREDCHAIN-...                    revoke a credential
  status          [-issuer 0x...]                      registry or issuer status

shared flags: -url (registry base URL), -token (bearer token, or CREDCHAIN_TOKEN)`)
}

// sharedFlags registers the flags every command takes and returns a builder
// that must be called after fs.Parse.
func sharedFlags(fs *flag.FlagSet) func() *client {
	baseURL := fs.String("url", defaultBaseURL, "Registry base URL")
	token := fs.String("token", os.Getenv("CREDCHAIN_TOKEN"), "Bearer token (defaults to CREDCHAIN_TOKEN)")
	return func() *client {
		return &client{
			baseURL: *baseURL,
			token:   *token,
			http:    &http.Client{Timeout: 10 * time.Second},
		}
	}
}

func whitelistCmd(args []string) error {
	fs := flag.NewFlagSet("whitelist", flag.ExitOnError)
	issuer := fs.String("issuer", "", "Institution wallet address (required)")
	name := fs.String("name", "", "Institution display name")
	newClient := sharedFlags(fs)
	fs.Parse(args)
	if *issuer == "" {
		return fmt.Errorf("-issuer is required")
	}
	return newClient().setIssuerStatus(*issuer, true, *name)
}

func removeCmd(args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	issuer := fs.String("issuer", "", "Institution wallet address (required)")
	newClient := sharedFlags(fs)
	fs.Parse(args)
	if *issuer == "" {
		return fmt.Errorf("-issuer is required")
	}
	return newClient().setIssuerStatus(*issuer, false, "")
}

func transferAdminCmd(args []string) error {
	fs := flag.NewFlagSet("transfer-admin", flag.ExitOnError)
	newAdmin := fs.String("to", "", "New administrator wallet address (required)")
	newClient := sharedFlags(fs)
	fs.Parse(args)
	if *newAdmin == "" {
		return fmt.Errorf("-to is required")
	}
	return newClient().transferAdmin(*newAdmin)
}

func revokeCmd(args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	id := fs.String("id", "", "EduID of the credential to revoke (required)")
	newClient := sharedFlags(fs)
	fs.Parse(args)
	if *id == "" {
		return fmt.Errorf("-id is required")
	}
	return newClient().revoke(*id)
}

func statusCmd(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	issuer := fs.String("issuer", "", "Limit output to one institution")
	newClient := sharedFlags(fs)
	fs.Parse(args)
	return newClient().status(*issuer)
}

func (c *client) setIssuerStatus(issuer string, whitelisted bool, name string) error {
	return c.post("/registry/issuers", models.SetIssuerStatusRequest{
		Issuer:          issuer,
		Whitelisted:     whitelisted,
		InstitutionName: name,
	})
}

func (c *client) transferAdmin(newAdmin string) error {
	return c.post("/registry/admin/transfer", models.TransferAdminRequest{NewAdmin: newAdmin})
}

func (c *client) revoke(id string) error {
	return c.post("/registry/credentials/"+id+"/revoke", nil)
}

func (c *client) status(issuer string) error {
	if issuer != "" {
		return c.get("/registry/issuers/" + issuer)
	}
	if err := c.get("/registry/admin"); err != nil {
		return err
	}
	return c.get("/registry/credentials/count")
}

func (c *client) post(path string, body any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token == "" {
		return fmt.Errorf("no bearer token; pass -token or set CREDCHAIN_TOKEN")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.do(req)
}

func (c *client) get(path string) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

func (c *client) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(payload))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		fmt.Println(string(payload))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}
