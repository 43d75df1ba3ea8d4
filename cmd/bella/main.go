// Command bella is the terminal client for the Bella Tavola backend. It
// keeps an encrypted session under ~/.bellatavola and exposes one
// subcommand per backend operation.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/client/api"
	"bellatavola/internal/client/realtime"
	"bellatavola/internal/client/regform"
	"bellatavola/internal/client/session"
	"bellatavola/internal/dni"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	sessions := session.NewStore(sessionDir())
	sessions.Hydrate()
	client := api.NewClient(endpoints(), sessions)
	app := &app{client: client, sessions: sessions}

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "register":
		err = app.register(ctx, os.Args[2:])
	case "register-anonymous":
		err = app.registerAnonymous(ctx, os.Args[2:])
	case "login":
		err = app.login(ctx, os.Args[2:])
	case "social-login":
		err = app.socialLogin(ctx, os.Args[2:])
	case "social-callback":
		err = app.socialCallback(ctx, os.Args[2:])
	case "social-complete":
		err = app.socialComplete(ctx, os.Args[2:])
	case "logout":
		err = app.logout(ctx)
	case "whoami":
		err = app.whoami(ctx)
	case "reserve":
		err = app.reserve(ctx, os.Args[2:])
	case "reservations":
		err = app.reservations(ctx, os.Args[2:])
	case "availability":
		err = app.availability(ctx, os.Args[2:])
	case "reservation-status":
		err = app.reservationStatus(ctx, os.Args[2:])
	case "cancel-reservation":
		err = app.cancelReservation(ctx, os.Args[2:])
	case "order":
		err = app.order(ctx, os.Args[2:])
	case "deliveries":
		err = app.deliveries(ctx, os.Args[2:])
	case "delivery-status":
		err = app.deliveryStatus(ctx, os.Args[2:])
	case "cancel-order":
		err = app.cancelOrder(ctx, os.Args[2:])
	case "pay":
		err = app.pay(ctx, os.Args[2:])
	case "listen":
		err = app.listen(ctx)
	case "staff-create":
		err = app.staffCreate(ctx, os.Args[2:])
	case "menu-add":
		err = app.menuAdd(ctx, os.Args[2:])
	case "menu":
		err = app.menu(ctx)
	case "tables":
		err = app.tables(ctx)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: bella <command> [flags]

auth:         register register-anonymous login social-login social-callback
              social-complete logout whoami
reservations: reserve reservations availability reservation-status cancel-reservation
delivery:     order deliveries delivery-status cancel-order pay listen
admin:        staff-create menu-add menu tables`)
}

type app struct {
	client   *api.Client
	sessions *session.Store
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (min 6 chars)")
	dniFlag := fs.String("dni", "", "DNI number")
	cuil := fs.String("cuil", "", "CUIL number")
	scan := fs.String("scan", "", "Raw DNI barcode payload; prefills dni and name")
	fs.Parse(args)

	form := regform.New(authmodels.ProfileRegistered, func(values regform.Values) error {
		resp, err := a.client.Register(ctx,
			values[regform.FieldName], values[regform.FieldEmail], values[regform.FieldPassword],
			values[regform.FieldDNI], values[regform.FieldCUIL])
		if err != nil {
			return err
		}
		return a.saveSession(resp)
	})

	if *scan != "" {
		rec := dni.Parse(*scan)
		if *dniFlag == "" {
			*dniFlag = rec.DNI
		}
		if *name == "" && rec.FirstName != "" {
			*name = strings.TrimSpace(rec.FirstName + " " + rec.LastName)
		}
	}
	form.SetValue(regform.FieldName, *name)
	form.SetValue(regform.FieldEmail, *email)
	form.SetValue(regform.FieldPassword, *password)
	form.SetValue(regform.FieldDNI, *dniFlag)
	form.SetValue(regform.FieldCUIL, *cuil)

	if err := form.Submit(); err != nil {
		for field, msg := range form.Errors() {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
		}
		return err
	}
	fmt.Println("Registered and logged in.")
	return nil
}

func (a *app) registerAnonymous(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register-anonymous", flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	fs.Parse(args)

	resp, err := a.client.RegisterAnonymous(ctx, *name)
	if err != nil {
		return err
	}
	if err := a.saveSession(resp); err != nil {
		return err
	}
	fmt.Println("Anonymous session started as", resp.User.Name)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password")
	fs.Parse(args)

	resp, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := a.saveSession(resp); err != nil {
		return err
	}
	fmt.Println("Logged in as", resp.User.Name)
	return nil
}

func (a *app) socialLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("social-login", flag.ExitOnError)
	provider := fs.String("provider", "google", "Identity provider (google|facebook)")
	fs.Parse(args)

	state, authURL, err := a.client.SocialInit(ctx, *provider)
	if err != nil {
		return err
	}
	fmt.Println("Open this URL in a browser:")
	fmt.Println(" ", authURL)
	fmt.Println("Then finish with:")
	fmt.Printf("  bella social-callback -state %s -code <code>\n", state)
	return nil
}

func (a *app) socialCallback(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("social-callback", flag.ExitOnError)
	state := fs.String("state", "", "State from social-login")
	code := fs.String("code", "", "Authorization code from the provider")
	fs.Parse(args)

	result, err := a.client.SocialCallback(ctx, *state, *code)
	if err != nil {
		return err
	}
	if result.RegistrationRequired {
		fmt.Println("No account yet for", result.Email)
		fmt.Println("Finish with:")
		fmt.Printf("  bella social-complete -token %s -name %q -dni <dni> -cuil <cuil>\n",
			result.RegistrationToken, result.Name)
		return nil
	}
	if err := a.saveSession(result.AuthResponse); err != nil {
		return err
	}
	fmt.Println("Logged in as", result.User.Name)
	return nil
}

func (a *app) socialComplete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("social-complete", flag.ExitOnError)
	token := fs.String("token", "", "Registration token from social-callback")
	name := fs.String("name", "", "Full name")
	dniFlag := fs.String("dni", "", "DNI number")
	cuil := fs.String("cuil", "", "CUIL number")
	fs.Parse(args)

	resp, err := a.client.CompleteSocialRegistration(ctx, *token, *name, *dniFlag, *cuil)
	if err != nil {
		return err
	}
	if err := a.saveSession(resp); err != nil {
		return err
	}
	fmt.Println("Registered and logged in as", resp.User.Name)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "server logout failed:", err)
	}
	// Local tokens are wiped even when the server call fails.
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	a.sessions.SetUser(user)
	return printJSON(user)
}

func (a *app) reserve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reserve", flag.ExitOnError)
	table := fs.String("table", "", "Table ID")
	date := fs.String("date", "", "Date (YYYY-MM-DD)")
	timeOfDay := fs.String("time", "", "Time (HH:MM, within service hours)")
	party := fs.Int("party", 2, "Party size")
	notes := fs.String("notes", "", "Notes for the host")
	fs.Parse(args)

	reservation, err := a.client.CreateReservation(ctx, *table, *date, *timeOfDay, *party, *notes)
	if err != nil {
		return err
	}
	return printJSON(reservation)
}

func (a *app) reservations(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reservations", flag.ExitOnError)
	all := fs.Bool("all", false, "List every reservation (staff only)")
	date := fs.String("date", "", "Filter by date when listing all")
	fs.Parse(args)

	if *all {
		list, err := a.client.AllReservations(ctx, *date)
		if err != nil {
			return err
		}
		return printJSON(list)
	}
	list, err := a.client.MyReservations(ctx)
	if err != nil {
		return err
	}
	return printJSON(list)
}

func (a *app) availability(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("availability", flag.ExitOnError)
	date := fs.String("date", "", "Date (YYYY-MM-DD)")
	timeOfDay := fs.String("time", "", "Time (HH:MM)")
	party := fs.Int("party", 2, "Party size")
	tableType := fs.String("type", "", "Table type (standard|vip|accessible)")
	fs.Parse(args)

	result, err := a.client.Availability(ctx, *date, *timeOfDay, *party, *tableType)
	if err != nil {
		return err
	}
	if len(result.Tables) == 0 && len(result.Suggestions) > 0 {
		fmt.Println("Nothing free at that time. Try:", strings.Join(result.Suggestions, ", "))
		return nil
	}
	return printJSON(result)
}

func (a *app) reservationStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reservation-status", flag.ExitOnError)
	id := fs.String("id", "", "Reservation ID")
	action := fs.String("action", "", "approve or reject")
	reason := fs.String("reason", "", "Rejection reason (required for reject)")
	fs.Parse(args)

	reservation, err := a.client.UpdateReservationStatus(ctx, *id, *action, *reason)
	if err != nil {
		return err
	}
	return printJSON(reservation)
}

func (a *app) cancelReservation(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel-reservation", flag.ExitOnError)
	id := fs.String("id", "", "Reservation ID")
	fs.Parse(args)

	reservation, err := a.client.CancelReservation(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(reservation)
}

func (a *app) order(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	address := fs.String("address", "", "Delivery address")
	var items itemFlags
	fs.Var(&items, "item", "Order line as name:quantity:price_cents:category, repeatable")
	fs.Parse(args)

	if len(items) == 0 {
		return fmt.Errorf("at least one -item is required")
	}
	order, err := a.client.CreateDelivery(ctx, *address, items)
	if err != nil {
		return err
	}
	return printJSON(order)
}

func (a *app) deliveries(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("deliveries", flag.ExitOnError)
	status := fs.String("status", "pending", "pending or confirmed")
	fs.Parse(args)

	list := a.client.PendingDeliveries
	switch *status {
	case "pending":
	case "confirmed":
		list = a.client.ConfirmedDeliveries
	default:
		return fmt.Errorf("unknown status %q", *status)
	}
	orders, err := list(ctx)
	if err != nil {
		return err
	}
	return printJSON(orders)
}

func (a *app) deliveryStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delivery-status", flag.ExitOnError)
	id := fs.String("id", "", "Order ID")
	item := fs.String("item", "", "Item ID; advances one item instead of the order")
	action := fs.String("action", "", "Order: confirm|ready|deliver. Item: start|ready")
	fs.Parse(args)

	order, err := a.client.UpdateDeliveryStatus(ctx, *id, *item, *action)
	if err != nil {
		return err
	}
	return printJSON(order)
}

func (a *app) cancelOrder(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel-order", flag.ExitOnError)
	id := fs.String("id", "", "Order ID")
	fs.Parse(args)

	order, err := a.client.CancelDelivery(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(order)
}

func (a *app) pay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	id := fs.String("id", "", "Order ID")
	wait := fs.Bool("wait", false, "Stay connected until the payment-confirmed event arrives")
	fs.Parse(args)

	order, err := a.client.ConfirmPayment(ctx, *id)
	if err != nil {
		return err
	}
	if err := printJSON(order); err != nil {
		return err
	}
	if !*wait {
		return nil
	}
	return a.waitForPayment(ctx, order.OrderID)
}

// waitForPayment holds the realtime connection open until the confirmed
// event for this order comes through or the user interrupts.
func (a *app) waitForPayment(ctx context.Context, orderID string) error {
	tokens, err := a.sessions.Tokens()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	listener := realtime.NewListener(realtimeURL(), tokens.AccessToken, func(event realtime.Event) {
		if event.Type != "delivery_payment_confirmed" {
			return
		}
		var payload struct {
			OrderID string `json:"order_id"`
		}
		if json.Unmarshal(event.Payload, &payload) != nil || payload.OrderID != orderID {
			return
		}
		fmt.Println("Payment confirmed for order", orderID)
		cancel()
	})
	err = listener.Listen(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *app) listen(ctx context.Context) error {
	tokens, err := a.sessions.Tokens()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Println("Listening for events, Ctrl-C to stop.")
	listener := realtime.NewListener(realtimeURL(), tokens.AccessToken, func(event realtime.Event) {
		fmt.Printf("[%s] %s %s\n", event.CreatedAt.Format("15:04:05"), event.Type, string(event.Payload))
	})
	err = listener.Listen(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *app) staffCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("staff-create", flag.ExitOnError)
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password")
	dniFlag := fs.String("dni", "", "DNI number")
	cuil := fs.String("cuil", "", "CUIL number")
	position := fs.String("position", "", "Position code (waiter|bar|kitchen|host)")
	photo := fs.String("photo", "", "Path to a profile photo, optional")
	fs.Parse(args)

	user, err := a.client.CreateStaff(ctx, map[string]string{
		"name": *name, "email": *email, "password": *password,
		"dni": *dniFlag, "cuil": *cuil, "position_code": *position,
	}, *photo)
	if err != nil {
		return err
	}
	return printJSON(user)
}

func (a *app) menuAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("menu-add", flag.ExitOnError)
	name := fs.String("name", "", "Item name")
	description := fs.String("description", "", "Item description")
	price := fs.Int64("price", 0, "Price in cents")
	category := fs.String("category", "kitchen", "kitchen or bar")
	var images itemPaths
	fs.Var(&images, "image", "Path to an item photo, exactly three required")
	fs.Parse(args)

	item, err := a.client.CreateMenuItem(ctx, map[string]string{
		"name":        *name,
		"description": *description,
		"price_cents": strconv.FormatInt(*price, 10),
		"category":    *category,
	}, images)
	if err != nil {
		return err
	}
	return printJSON(item)
}

func (a *app) menu(ctx context.Context) error {
	items, err := a.client.Menu(ctx)
	if err != nil {
		return err
	}
	return printJSON(items)
}

func (a *app) tables(ctx context.Context) error {
	tables, err := a.client.Tables(ctx)
	if err != nil {
		return err
	}
	return printJSON(tables)
}

func (a *app) saveSession(resp api.AuthResponse) error {
	return a.sessions.Set(session.Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, resp.User)
}

// itemFlags accumulates repeated -item flags as order lines.
type itemFlags []api.OrderItemInput

func (f *itemFlags) String() string { return fmt.Sprint(len(*f), " items") }

func (f *itemFlags) Set(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return fmt.Errorf("want name:quantity:price_cents:category, got %q", value)
	}
	quantity, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("bad quantity %q", parts[1])
	}
	price, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return fmt.Errorf("bad price %q", parts[2])
	}
	*f = append(*f, api.OrderItemInput{
		Name: parts[0], Quantity: quantity, Price: price, Category: parts[3],
	})
	return nil
}

type itemPaths []string

func (f *itemPaths) String() string { return strings.Join(*f, ",") }

func (f *itemPaths) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func printJSON(value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func sessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bellatavola"
	}
	return filepath.Join(home, ".bellatavola")
}

func endpoints() api.Endpoints {
	return api.Endpoints{
		Auth:        baseURL("BELLA_AUTH_URL", "http://localhost:8081"),
		Admin:       baseURL("BELLA_ADMIN_URL", "http://localhost:8082"),
		Reservation: baseURL("BELLA_RESERVATION_URL", "http://localhost:8083"),
		Delivery:    baseURL("BELLA_DELIVERY_URL", "http://localhost:8084"),
	}
}

func realtimeURL() string {
	return baseURL("BELLA_REALTIME_WS", "ws://localhost:8085/realtime/websocket")
}

func baseURL(env, fallback string) string {
	if value := os.Getenv(env); value != "" {
		return strings.TrimRight(value, "/")
	}
	return fallback
}
