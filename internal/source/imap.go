package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	emmail "github.com/emersion/go-message/mail"
	"golang.org/x/sync/semaphore"

	"github.com/geelink/docingest/internal/boilerplate"
	"github.com/geelink/docingest/internal/identity"
	"github.com/geelink/docingest/internal/item"
)

// IMAP crawls a mailbox incrementally, tracking already-ingested messages
// in a JSON state file keyed by UID (spec.md §4.11). Every connection
// lifecycle step (dial/login/select/logout) releases its resource on
// every exit path, including failure.
type IMAP struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Mailbox     string
	UseSSL      bool
	MaxEmails   int
	Concurrency int
	StateFile   string
	ResetState  bool
	Logger      *slog.Logger
}

func (s IMAP) Name() string { return "imap" }

func (s IMAP) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Read never returns a non-nil error for connect/login/select/search
// failures: per spec.md §4.11 step 1 and §7's SourceFailure semantics,
// those are logged and yield an empty batch rather than aborting the
// caller's request.
func (s IMAP) Read(ctx context.Context) ([]item.Item, error) {
	logger := s.logger()

	mailbox := s.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	maxEmails := s.MaxEmails
	if maxEmails <= 0 {
		maxEmails = 50
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	port := s.Port
	if port <= 0 {
		port = 993
	}

	addr := fmt.Sprintf("%s:%d", s.Host, port)

	var client *imapclient.Client
	var err error
	if s.UseSSL {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialInsecure(addr, nil)
	}
	if err != nil {
		logger.Warn("imap: connect failed", "host", s.Host, "error", err)
		return nil, nil
	}
	defer client.Close()

	if err := client.Login(s.Username, s.Password).Wait(); err != nil {
		logger.Warn("imap: login failed", "username", s.Username, "error", err)
		return nil, nil
	}
	defer client.Logout()

	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		logger.Warn("imap: select failed", "mailbox", mailbox, "error", err)
		return nil, nil
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		logger.Warn("imap: search failed", "error", err)
		return nil, nil
	}

	uids := searchData.AllUIDs()
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	var seen map[imap.UID]bool
	if s.ResetState {
		seen = map[imap.UID]bool{}
	} else if seen, err = loadSeenUIDs(s.StateFile); err != nil {
		logger.Warn("imap: failed to load seen-uid state, starting empty", "path", s.StateFile, "error", err)
		seen = map[imap.UID]bool{}
	}

	var pending []imap.UID
	for _, u := range uids {
		if !seen[u] {
			pending = append(pending, u)
		}
	}
	if len(pending) > maxEmails {
		pending = pending[len(pending)-maxEmails:]
	}

	var mu sync.Mutex
	var fetchMu sync.Mutex // serializes commands on the single shared imapclient.Client connection
	var items []item.Item
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(int64(concurrency))

	for _, uid := range pending {
		uid := uid
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			msgItems, ok := s.fetchUID(client, &fetchMu, uid, logger)

			mu.Lock()
			if ok {
				items = append(items, msgItems...)
			}
			seen[uid] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Sort descending by content_score, per spec.md §4.11 step 5.
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })

	if err := saveSeenUIDs(s.StateFile, seen); err != nil {
		logger.Warn("imap: failed to persist seen-uid state", "path", s.StateFile, "error", err)
	}

	return items, nil
}

// fetchUID runs one FETCH command under fetchMu, since go-imap v2 requires
// a command's response literals be fully consumed before the next command
// is issued on the same connection - concurrent workers share one
// imapclient.Client, so only the network round-trip is serialized here;
// parseMessage's CPU-bound work still runs outside the lock.
func (s IMAP) fetchUID(client *imapclient.Client, fetchMu *sync.Mutex, uid imap.UID, logger *slog.Logger) ([]item.Item, bool) {
	raw, ok := func() ([]byte, bool) {
		fetchMu.Lock()
		defer fetchMu.Unlock()

		uidSet := imap.UIDSetNum(uid)
		fetchOptions := &imap.FetchOptions{
			UID:         true,
			BodySection: []*imap.FetchItemBodySection{{}},
		}

		fetchCmd := client.Fetch(uidSet, fetchOptions)

		msg := fetchCmd.Next()
		if msg == nil {
			_ = fetchCmd.Close()
			return nil, false
		}

		var raw []byte
		for {
			fetchItem := msg.Next()
			if fetchItem == nil {
				break
			}
			if section, ok := fetchItem.(imapclient.FetchItemDataBodySection); ok {
				if b, err := io.ReadAll(section.Literal); err == nil {
					raw = b
				}
			}
		}

		if err := fetchCmd.Close(); err != nil {
			logger.Warn("imap: fetch failed", "uid", uint32(uid), "error", err)
			return nil, false
		}
		return raw, true
	}()
	if !ok || len(raw) == 0 {
		return nil, false
	}

	return s.parseMessage(raw, uid, logger)
}

// parseMessage reassembles the RFC822 body into a parent text Item plus
// one Item per attachment part, per spec.md §4.11 step 4.
func (s IMAP) parseMessage(raw []byte, uid imap.UID, logger *slog.Logger) ([]item.Item, bool) {
	reader, err := emmail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		logger.Warn("imap: parsing message failed", "uid", uint32(uid), "error", err)
		return nil, false
	}

	subject, _ := reader.Header.Subject()
	date, _ := reader.Header.Date()
	fromAddrs, _ := reader.Header.AddressList("From")

	sender := ""
	if len(fromAddrs) > 0 {
		sender = fromAddrs[0].Address
	}
	dateStr := date.UTC().Format(time.RFC3339)
	parentDocID := hashHex(subject + dateStr + sender)[:16]

	var textParts []string
	var attachments []item.Item

	for {
		part, err := reader.NextPart()
		if err != nil {
			if err != io.EOF {
				logger.Warn("imap: reading message part failed", "uid", uint32(uid), "error", err)
			}
			break
		}

		switch h := part.Header.(type) {
		case *emmail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			switch contentType {
			case "text/html":
				textParts = append(textParts, boilerplate.Extract(body))
			default:
				textParts = append(textParts, string(body))
			}
		case *emmail.AttachmentHeader:
			filename, _ := h.Filename()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			attachDocID := hashHex(parentDocID + filename)[:16]
			attachments = append(attachments, item.Item{
				FileName:     filename,
				Binary:       body,
				SourceType:   item.SourceEmailAttachment,
				SourcePath:   fmt.Sprintf("imap://%s@%s/%s/%d/%s", s.Username, s.Host, s.mailboxName(), uid, filename),
				UserMetadata: map[string]any{"doc_id": attachDocID},
			})
		}
	}

	extracted := strings.TrimSpace(strings.Join(textParts, "\n\n"))

	subjectLabel := identity.CleanFilename(subject)
	if subjectLabel == "" {
		subjectLabel = "no_subject"
	}

	body := item.Item{
		FileName:     subjectLabel + ".txt",
		Binary:       []byte(extracted),
		RawText:      extracted,
		HasRawText:   true,
		SourceType:   item.SourceEmail,
		SourcePath:   fmt.Sprintf("imap://%s@%s/%s/%d", s.Username, s.Host, s.mailboxName(), uid),
		Score:        float64(len(extracted)),
		UserMetadata: map[string]any{"doc_id": parentDocID},
	}

	return append([]item.Item{body}, attachments...), true
}

func (s IMAP) mailboxName() string {
	if s.Mailbox == "" {
		return "INBOX"
	}
	return s.Mailbox
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func loadSeenUIDs(path string) (map[imap.UID]bool, error) {
	if path == "" {
		return map[imap.UID]bool{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[imap.UID]bool{}, nil
		}
		return nil, err
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[imap.UID]bool, len(raw))
	for _, s := range raw {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			continue
		}
		out[imap.UID(uint32(n))] = true
	}
	return out, nil
}

func saveSeenUIDs(path string, uids map[imap.UID]bool) error {
	if path == "" {
		return nil
	}
	raw := make([]string, 0, len(uids))
	for u := range uids {
		raw = append(raw, strconv.FormatUint(uint64(u), 10))
	}
	sort.Strings(raw)
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
