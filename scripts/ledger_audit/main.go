package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type student struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type receivable struct {
	ID             string `json:"id"`
	Concept        string `json:"concept"`
	TotalAmount    string `json:"total_amount"`
	PendingBalance string `json:"pending_balance"`
	Status         string `json:"status"`
}

type payment struct {
	ID                  string `json:"id"`
	AccountReceivableID string `json:"account_receivable_id"`
	AmountPaid          string `json:"amount_paid"`
	Status              string `json:"status"`
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

type finding struct {
	StudentID  string
	Receivable string
	Detail     string
}

func main() {
	var (
		apiBase string
		prefix  string
		timeout time.Duration
	)

	flag.StringVar(&apiBase, "api-base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API route prefix")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	base := strings.TrimRight(apiBase, "/") + prefix

	students, err := fetchStudents(client, base)
	if err != nil {
		log.Fatalf("failed to list students: %v", err)
	}

	var findings []finding
	for _, s := range students {
		fs, err := auditStudent(client, base, s)
		if err != nil {
			log.Fatalf("audit failed for student %s: %v", s.ID, err)
		}
		findings = append(findings, fs...)
	}

	printReport(len(students), findings)
	if len(findings) > 0 {
		os.Exit(1)
	}
}

func fetchStudents(client *http.Client, base string) ([]student, error) {
	var all []student
	for page := 1; ; page++ {
		var env envelope
		url := fmt.Sprintf("%s/students?page=%d&limit=100", base, page)
		if err := getJSON(client, url, &env); err != nil {
			return nil, err
		}
		var batch []student
		if err := json.Unmarshal(env.Data, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if env.Pagination == nil || page >= env.Pagination.TotalPages {
			break
		}
	}
	return all, nil
}

// auditStudent cross-checks a student's receivables against their payment
// history. A voided payment never restores a balance, so the settled portion
// of a receivable must be at least the sum of its still-active payments.
func auditStudent(client *http.Client, base string, s student) ([]finding, error) {
	var recEnv envelope
	url := fmt.Sprintf("%s/students/%s/receivables", base, s.ID)
	if err := getJSON(client, url, &recEnv); err != nil {
		return nil, err
	}
	var recs []receivable
	if err := json.Unmarshal(recEnv.Data, &recs); err != nil {
		return nil, err
	}

	var payEnv envelope
	if err := getJSON(client, fmt.Sprintf("%s/students/%s/payments", base, s.ID), &payEnv); err != nil {
		return nil, err
	}
	var pays []payment
	if err := json.Unmarshal(payEnv.Data, &pays); err != nil {
		return nil, err
	}

	activePaid := map[string]float64{}
	for _, p := range pays {
		if p.Status == "VOID" {
			continue
		}
		amount, err := parseMoney(p.AmountPaid)
		if err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		activePaid[p.AccountReceivableID] += amount
	}

	var findings []finding
	for _, r := range recs {
		total, err := parseMoney(r.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("receivable %s: %w", r.ID, err)
		}
		pending, err := parseMoney(r.PendingBalance)
		if err != nil {
			return nil, fmt.Errorf("receivable %s: %w", r.ID, err)
		}

		switch {
		case pending < 0:
			findings = append(findings, fail(s, r, fmt.Sprintf("negative pending balance %.2f", pending)))
		case pending > total:
			findings = append(findings, fail(s, r, fmt.Sprintf("pending %.2f exceeds total %.2f", pending, total)))
		}
		if r.Status == "PAID" && pending != 0 {
			findings = append(findings, fail(s, r, fmt.Sprintf("marked PAID with pending %.2f", pending)))
		}
		if r.Status == "PENDING" && pending == 0 && total != 0 {
			findings = append(findings, fail(s, r, "fully settled but still PENDING"))
		}
		if settled := total - pending; activePaid[r.ID] > settled+0.005 {
			findings = append(findings, fail(s, r,
				fmt.Sprintf("active payments %.2f exceed settled amount %.2f", activePaid[r.ID], settled)))
		}
	}
	return findings, nil
}

func fail(s student, r receivable, detail string) finding {
	return finding{StudentID: s.ID, Receivable: r.Concept, Detail: detail}
}

func getJSON(client *http.Client, url string, out interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

func parseMoney(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return v, nil
}

func printReport(studentCount int, findings []finding) {
	fmt.Println("Ledger Audit Report")
	fmt.Println("===================")
	fmt.Printf("Students audited: %d\n", studentCount)
	if len(findings) == 0 {
		fmt.Println("All balances reconcile.")
		return
	}
	for _, f := range findings {
		fmt.Printf("[FAIL] student=%s receivable=%q: %s\n", f.StudentID, f.Receivable, f.Detail)
	}
	fmt.Printf("Inconsistencies: %d\n", len(findings))
}
