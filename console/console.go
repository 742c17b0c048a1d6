// Package console is a line-based front end over the matching book and
// the ledger. It owns no matching logic: every order goes through
// OrderBook.SubmitOrderWait and the returned receipt is logged and
// rendered.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/xid"

	match "github.com/openclob/openclob"
	"github.com/openclob/openclob/ledger"
)

const helpText = `Commands:
  deposit <account> <amount>         credit an account
  withdraw <account> <amount>        debit an account
  send <sender> <recipient> <amount> transfer between accounts
  ledger                             print balances and the tx log
  buy <signer> <amount> <price>      submit a buy order
  sell <signer> <amount> <price>     submit a sell order
  book                               print the order book depth
  amount <buy|sell> <price>          resting quantity at a price level
  receipts                           print the match log
  help                               this text
  quit                               exit`

// Console reads commands line by line and dispatches them against the
// book and the ledger. Reader and writer are injectable for tests.
type Console struct {
	sessionID  string
	depthLimit uint32
	book       *match.OrderBook
	accounts   *ledger.Accounts
	txLog      []ledger.Tx
	out        io.Writer
	logger     *slog.Logger
}

// New creates a console bound to one book and one ledger.
func New(cfg *Config, book *match.OrderBook, accounts *ledger.Accounts, out io.Writer, logger *slog.Logger) *Console {
	sessionID := xid.New().String()
	return &Console{
		sessionID:  sessionID,
		depthLimit: cfg.Book.DepthLimit,
		book:       book,
		accounts:   accounts,
		out:        out,
		logger:     logger.With("session_id", sessionID),
	}
}

// Run reads commands from in until quit or EOF.
func (c *Console) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if c.Dispatch(line) {
			return nil
		}
	}
}

// Dispatch executes one command line. It returns true when the command
// asks the console to exit.
func (c *Console) Dispatch(line string) bool {
	args := strings.Fields(line)
	command := args[0]

	c.logger.Debug("console command", "command", command)

	switch command {
	case "deposit":
		c.handleDeposit(args[1:])
	case "withdraw":
		c.handleWithdraw(args[1:])
	case "send":
		c.handleSend(args[1:])
	case "ledger":
		c.printLedger()
	case "buy":
		c.handleOrder(match.Buy, args[1:])
	case "sell":
		c.handleOrder(match.Sell, args[1:])
	case "book":
		c.printBook()
	case "amount":
		c.handleAmount(args[1:])
	case "receipts":
		c.printReceipts()
	case "help":
		fmt.Fprintln(c.out, helpText)
	case "quit":
		return true
	default:
		fmt.Fprintf(c.out, "Command '%s' not found.\n", command)
	}

	return false
}

func (c *Console) handleDeposit(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "usage: deposit <account> <amount>")
		return
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	tx, err := c.accounts.Deposit(args[0], amount)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	c.txLog = append(c.txLog, tx)
	fmt.Fprintf(c.out, "deposited %d to %s (balance %d)\n", amount, args[0], c.accounts.Balance(args[0]))
}

func (c *Console) handleWithdraw(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "usage: withdraw <account> <amount>")
		return
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	tx, err := c.accounts.Withdraw(args[0], amount)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	c.txLog = append(c.txLog, tx)
	fmt.Fprintf(c.out, "withdrew %d from %s (balance %d)\n", amount, args[0], c.accounts.Balance(args[0]))
}

func (c *Console) handleSend(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(c.out, "usage: send <sender> <recipient> <amount>")
		return
	}
	amount, err := parseAmount(args[2])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	withdrawTx, depositTx, err := c.accounts.Send(args[0], args[1], amount)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	c.txLog = append(c.txLog, withdrawTx, depositTx)
	fmt.Fprintf(c.out, "sent %d from %s to %s\n", amount, args[0], args[1])
}

func (c *Console) handleOrder(side match.Side, args []string) {
	if len(args) != 3 {
		fmt.Fprintf(c.out, "usage: %s <signer> <amount> <price>\n", side)
		return
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	price, err := parseAmount(args[2])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	order := match.Order{
		Price:  price,
		Amount: amount,
		Side:   side,
		Signer: args[0],
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	receipt, err := c.book.SubmitOrderWait(ctx, order)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	c.logger.Info("order processed",
		"ordinal", receipt.Ordinal,
		"signer", order.Signer,
		"side", order.Side.String(),
		"price", order.Price,
		"amount", order.Amount,
		"matched", receipt.MatchedAmount(),
	)
	c.printReceipt(receipt)
}

func (c *Console) handleAmount(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "usage: amount <buy|sell> <price>")
		return
	}

	var side match.Side
	switch args[0] {
	case "buy":
		side = match.Buy
	case "sell":
		side = match.Sell
	default:
		fmt.Fprintf(c.out, "unknown side '%s'\n", args[0])
		return
	}

	price, err := parseAmount(args[1])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	amount, err := c.book.AmountAtPriceLevel(price, side)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	fmt.Fprintf(c.out, "%d resting at %d on the %s side\n", amount, price, side)
}

func (c *Console) printReceipt(receipt *match.Receipt) {
	fmt.Fprintf(c.out, "receipt for ordinal %d\n", receipt.Ordinal)
	if len(receipt.Matches) == 0 {
		fmt.Fprintln(c.out, "no matches")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Ordinal", "Signer", "Side", "Price", "Matched", "Remaining"})
	for i := range receipt.Matches {
		m := &receipt.Matches[i]
		table.Append([]string{
			strconv.FormatUint(m.Ordinal, 10),
			m.Signer,
			m.Side.String(),
			strconv.FormatUint(m.Price, 10),
			strconv.FormatUint(m.Amount, 10),
			strconv.FormatUint(m.Remaining, 10),
		})
	}
	table.Render()

	fmt.Fprintf(c.out, "matched %d, notional %s, avg price %s\n",
		receipt.MatchedAmount(), receipt.Notional(), receipt.AvgPrice())
}

func (c *Console) printLedger() {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Account", "Balance"})
	for _, balance := range c.accounts.Snapshot() {
		table.Append([]string{balance.Account, strconv.FormatUint(balance.Amount, 10)})
	}
	table.Render()

	if len(c.txLog) == 0 {
		return
	}

	txs := tablewriter.NewWriter(c.out)
	txs.SetHeader([]string{"Tx", "Account", "Amount"})
	for _, tx := range c.txLog {
		txs.Append([]string{tx.Type.String(), tx.Account, strconv.FormatUint(tx.Amount, 10)})
	}
	txs.Render()
}

func (c *Console) printBook() {
	depth, err := c.book.Depth(c.depthLimit)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Side", "Price", "Amount"})

	// Asks worst to best, bids best to worst, so the spread sits in the
	// middle of the table.
	for i := len(depth.Asks) - 1; i >= 0; i-- {
		table.Append([]string{"sell", strconv.FormatUint(depth.Asks[i].Price, 10), strconv.FormatUint(depth.Asks[i].Amount, 10)})
	}
	for _, item := range depth.Bids {
		table.Append([]string{"buy", strconv.FormatUint(item.Price, 10), strconv.FormatUint(item.Amount, 10)})
	}
	table.Render()

	fmt.Fprintf(c.out, "last ordinal %d\n", depth.LastOrdinal)
}

func (c *Console) printReceipts() {
	receipts, err := c.book.Receipts()
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Ordinal", "Fills", "Matched"})
	for i := range receipts {
		r := &receipts[i]
		table.Append([]string{
			strconv.FormatUint(r.Ordinal, 10),
			strconv.Itoa(len(r.Matches)),
			strconv.FormatUint(r.MatchedAmount(), 10),
		})
	}
	table.Render()
}

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not a valid unsigned number", s)
	}
	return v, nil
}
