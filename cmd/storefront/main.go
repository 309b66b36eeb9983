// Command storefront is a terminal client for the storefront platform. It
// keeps the session and cart in a local state file, so commands compose the
// way page visits do: login once, add to the cart across invocations, then
// check out.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/threadlane/storefront-go/internal/cart"
	"github.com/threadlane/storefront-go/internal/catalog"
	"github.com/threadlane/storefront-go/internal/flashsales"
	"github.com/threadlane/storefront-go/internal/newsletter"
	"github.com/threadlane/storefront-go/internal/orders"
	"github.com/threadlane/storefront-go/internal/pricing"
	"github.com/threadlane/storefront-go/internal/requestcache"
	"github.com/threadlane/storefront-go/internal/rest"
	"github.com/threadlane/storefront-go/internal/returns"
	"github.com/threadlane/storefront-go/internal/reviews"
	"github.com/threadlane/storefront-go/internal/session"
	"github.com/threadlane/storefront-go/pkg/config"
	"github.com/threadlane/storefront-go/pkg/enums"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"github.com/threadlane/storefront-go/pkg/localstore"
	"github.com/threadlane/storefront-go/pkg/logger"
	"github.com/threadlane/storefront-go/pkg/metrics"
	"github.com/threadlane/storefront-go/pkg/types"
)

const catalogCacheTTL = 60 * time.Second

// app bundles the wired client stack every subcommand runs against.
type app struct {
	session    *session.Store
	cart       *cart.Store
	catalog    *catalog.Service
	orders     *orders.Service
	reviews    *reviews.Service
	flashsales *flashsales.Service
	newsletter *newsletter.Service
	returns    *returns.Service
	cache      *requestcache.Cache
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	a, err := buildApp(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap client", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := run(ctx, a, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", pkgerrors.DisplayMessage(err))
		logg.Debug(logg.WithField(ctx, "cause", err.Error()), "command failed")
		os.Exit(1)
	}
}

// buildApp wires storage, session, REST client, and services in dependency
// order. The session store is both the client's token source and its
// unauthorized hook, so a 401 anywhere logs the user out everywhere.
func buildApp(cfg *config.Config, logg *logger.Logger) (*app, error) {
	storage, err := localstore.NewFileStore(cfg.State.File())
	if err != nil {
		return nil, err
	}

	sessionStore := session.NewStore(storage, logg)
	sessionStore.Restore()

	requestMetrics := metrics.NewRequestMetrics(prometheus.NewRegistry())
	client, err := rest.NewClient(cfg.API.BaseURL,
		rest.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		rest.WithTokenSource(sessionStore),
		rest.WithUnauthorizedHook(sessionStore.ForceLogout),
		rest.WithLogger(logg),
		rest.WithMetrics(requestMetrics),
	)
	if err != nil {
		return nil, err
	}
	sessionStore.UseAPI(client)

	cartStore := cart.NewStore(storage, logg)
	cartStore.Restore()

	catalogSvc, err := catalog.NewService(client)
	if err != nil {
		return nil, err
	}
	orderSvc, err := orders.NewService(client)
	if err != nil {
		return nil, err
	}
	reviewSvc, err := reviews.NewService(client)
	if err != nil {
		return nil, err
	}
	saleSvc, err := flashsales.NewService(client)
	if err != nil {
		return nil, err
	}
	newsSvc, err := newsletter.NewService(client)
	if err != nil {
		return nil, err
	}
	returnSvc, err := returns.NewService(client)
	if err != nil {
		return nil, err
	}

	return &app{
		session:    sessionStore,
		cart:       cartStore,
		catalog:    catalogSvc,
		orders:     orderSvc,
		reviews:    reviewSvc,
		flashsales: saleSvc,
		newsletter: newsSvc,
		returns:    returnSvc,
		cache:      requestcache.New(catalogCacheTTL),
	}, nil
}

func run(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	switch args[0] {
	case "login":
		return cmdLogin(ctx, a, args[1:])
	case "register":
		return cmdRegister(ctx, a, args[1:])
	case "logout":
		a.session.Logout()
		fmt.Println("logged out")
		return nil
	case "whoami":
		return cmdWhoami(a)
	case "products":
		return cmdProducts(ctx, a, args[1:])
	case "product":
		return cmdProduct(ctx, a, args[1:])
	case "cart":
		return cmdCart(ctx, a, args[1:])
	case "checkout":
		return cmdCheckout(ctx, a, args[1:])
	case "orders":
		return cmdOrders(ctx, a)
	case "order":
		return cmdOrder(ctx, a, args[1:])
	case "reviews":
		return cmdReviews(ctx, a, args[1:])
	case "review":
		return cmdReview(ctx, a, args[1:])
	case "flash-sales":
		return cmdFlashSales(ctx, a)
	case "newsletter":
		return cmdNewsletter(ctx, a, args[1:])
	case "returns":
		return cmdReturns(ctx, a)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Print(`usage: storefront <command> [args]

  login <email> <password>
  register <name> <email> <password> [phone]
  logout
  whoami

  products [search]
  product <id>
  flash-sales

  cart show
  cart add <product-id> <size> <quantity> [color]
  cart rm <product-id> <size>
  cart set <product-id> <size> <quantity>
  cart clear

  checkout <method> <name> <street> <city> <state> <zip> <country> <phone>
  orders
  order <id>
  order cancel <id> <reason>
  returns

  reviews <product-id>
  review <product-id> <rating 1-5> <comment>

  newsletter subscribe <email> [name]
  newsletter unsubscribe <email>
`)
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <email> <password>")
	}
	if err := a.session.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", a.session.CurrentUser().Name)
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: register <name> <email> <password> [phone]")
	}
	input := session.RegisterInput{Name: args[0], Email: args[1], Password: args[2]}
	if len(args) > 3 {
		input.Phone = args[3]
	}
	if err := a.session.Register(ctx, input); err != nil {
		return err
	}
	fmt.Printf("registered and logged in as %s\n", a.session.CurrentUser().Name)
	return nil
}

func cmdWhoami(a *app) error {
	user := a.session.CurrentUser()
	if user == nil {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

func cmdProducts(ctx context.Context, a *app, args []string) error {
	filters := catalog.Filters{}
	if len(args) > 0 {
		filters.Search = strings.Join(args, " ")
	}

	key := "products:" + filters.Search
	cached, err := a.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return a.catalog.List(ctx, filters)
	})
	if err != nil {
		return err
	}
	listing := cached.(*catalog.Listing)

	for _, product := range listing.Products {
		printProductRow(product)
	}
	fmt.Printf("page %d of %d (%d products)\n", listing.CurrentPage, listing.TotalPages, listing.Total)
	return nil
}

func printProductRow(product catalog.Product) {
	snapshot := product.Snapshot()
	label := pricing.Format(snapshot.EffectivePrice())
	if product.DiscountPrice != nil {
		label += " (was " + pricing.Format(product.Price) + ")"
	}
	fmt.Printf("%-22s %-28s %s\n", product.ID, product.Name, label)
}

func cmdProduct(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: product <id>")
	}
	product, err := a.catalog.Get(ctx, args[0])
	if err != nil {
		return err
	}

	printProductRow(*product)
	fmt.Printf("  brand: %s  category: %s  stock: %d\n", product.Brand, product.Category, product.TotalStock)
	if len(product.Sizes) > 0 {
		parts := make([]string, len(product.Sizes))
		for i, option := range product.Sizes {
			parts[i] = fmt.Sprintf("%s(%d)", option.Size, option.Stock)
		}
		fmt.Printf("  sizes: %s\n", strings.Join(parts, " "))
	}
	if len(product.Colors) > 0 {
		fmt.Printf("  colors: %s\n", strings.Join(product.Colors, " "))
	}
	if product.Description != "" {
		fmt.Printf("  %s\n", product.Description)
	}
	return nil
}

func cmdCart(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}
	switch args[0] {
	case "show":
		return cartShow(a)
	case "add":
		return cartAdd(ctx, a, args[1:])
	case "rm":
		if len(args) != 3 {
			return fmt.Errorf("usage: cart rm <product-id> <size>")
		}
		a.cart.Remove(args[1], args[2])
		return cartShow(a)
	case "set":
		if len(args) != 4 {
			return fmt.Errorf("usage: cart set <product-id> <size> <quantity>")
		}
		quantity, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("quantity must be a number")
		}
		a.cart.SetQuantity(args[1], args[2], quantity)
		return cartShow(a)
	case "clear":
		a.cart.Clear()
		fmt.Println("cart cleared")
		return nil
	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
}

func cartAdd(ctx context.Context, a *app, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: cart add <product-id> <size> <quantity> [color]")
	}
	quantity, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("quantity must be a number")
	}
	color := ""
	if len(args) > 3 {
		color = args[3]
	}

	product, err := a.catalog.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if !product.HasSize(args[1]) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product is not offered in size %q", args[1]))
	}

	a.cart.Add(product.Snapshot(), args[1], quantity, color)
	return cartShow(a)
}

func cartShow(a *app) error {
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Println("cart is empty")
		return nil
	}
	for _, line := range lines {
		label := line.Size
		if line.Color != "" {
			label += "/" + line.Color
		}
		fmt.Printf("%-22s %-28s %-12s x%d  %s\n",
			line.Product.ID, line.Product.Name, label, line.Quantity,
			pricing.Format(line.Product.EffectivePrice()))
	}

	quote := a.cart.Quote()
	fmt.Printf("subtotal %s  tax %s  shipping %s  total %s\n",
		pricing.Format(quote.Subtotal), pricing.Format(quote.Tax),
		pricing.Format(quote.Shipping), pricing.Format(quote.Total))
	if quote.FreeShipping() {
		fmt.Println("free shipping applied")
	}
	return nil
}

func cmdCheckout(ctx context.Context, a *app, args []string) error {
	if len(args) != 8 {
		return fmt.Errorf("usage: checkout <method> <name> <street> <city> <state> <zip> <country> <phone>")
	}
	method, err := enums.ParsePaymentMethod(args[0])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", args[0]))
	}
	address := types.ShippingAddress{
		Name:    args[1],
		Street:  args[2],
		City:    args[3],
		State:   args[4],
		ZipCode: args[5],
		Country: args[6],
		Phone:   args[7],
	}

	order, err := a.orders.Checkout(ctx, a.cart, address, method, nil)
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed, total %s\n", order.ID, pricing.Format(order.Total))
	return nil
}

func cmdOrders(ctx context.Context, a *app) error {
	list, err := a.orders.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no orders")
		return nil
	}
	for _, order := range list {
		fmt.Printf("%-38s %-12s %-10s %s\n",
			order.ID, order.Status, pricing.Format(order.Total),
			order.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func cmdOrder(ctx context.Context, a *app, args []string) error {
	if len(args) >= 1 && args[0] == "cancel" {
		if len(args) < 3 {
			return fmt.Errorf("usage: order cancel <id> <reason>")
		}
		order, err := a.orders.Cancel(ctx, args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("order %s is now %s\n", order.ID, order.Status)
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: order <id> | order cancel <id> <reason>")
	}

	order, err := a.orders.Get(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("order %s  status=%s  payment=%s/%s\n", order.ID, order.Status, order.PaymentMethod, order.PaymentStatus)
	for _, line := range order.Lines {
		fmt.Printf("  %-28s %-8s x%d  %s\n", line.Name, line.Size, line.Quantity, pricing.Format(line.Price))
	}
	fmt.Printf("  ship to: %s\n", order.ShippingAddress.Oneline())
	fmt.Printf("  subtotal %s  tax %s  shipping %s  total %s\n",
		pricing.Format(order.Subtotal), pricing.Format(order.Tax),
		pricing.Format(order.ShippingCharge), pricing.Format(order.Total))
	return nil
}

func cmdReviews(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: reviews <product-id>")
	}
	agg, err := a.reviews.ForProduct(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%d reviews, average %.1f\n", agg.TotalReviews, agg.AverageRating)
	for _, review := range agg.Reviews {
		verified := ""
		if review.Verified {
			verified = " [verified]"
		}
		fmt.Printf("  %d/5 by %s%s: %s\n", review.Rating, review.User.Name, verified, review.Comment)
	}
	return nil
}

func cmdReview(ctx context.Context, a *app, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: review <product-id> <rating 1-5> <comment>")
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("rating must be a number")
	}
	review, err := a.reviews.Create(ctx, reviews.CreateReviewInput{
		ProductID: args[0],
		Rating:    rating,
		Comment:   strings.Join(args[2:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Printf("review %s submitted\n", review.ID)
	return nil
}

func cmdFlashSales(ctx context.Context, a *app) error {
	cached, err := a.cache.Fetch(ctx, "flash-sales:active", func(ctx context.Context) (any, error) {
		return a.flashsales.Active(ctx)
	})
	if err != nil {
		return err
	}
	sales := cached.([]flashsales.Sale)
	if len(sales) == 0 {
		fmt.Println("no active flash sales")
		return nil
	}
	for _, sale := range sales {
		fmt.Printf("%s (until %s)\n", sale.Name, sale.EndTime.Format("2006-01-02 15:04"))
		for _, item := range sale.Products {
			fmt.Printf("  %-22s %s -> %s\n", item.ProductID,
				pricing.Format(item.OriginalPrice), pricing.Format(item.FlashPrice))
		}
	}
	return nil
}

func cmdNewsletter(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: newsletter subscribe|unsubscribe <email> [name]")
	}
	switch args[0] {
	case "subscribe":
		name := ""
		if len(args) > 2 {
			name = args[2]
		}
		if err := a.newsletter.Subscribe(ctx, args[1], name, enums.NewsletterSourceManual); err != nil {
			return err
		}
		fmt.Println("subscribed")
		return nil
	case "unsubscribe":
		if err := a.newsletter.Unsubscribe(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("unsubscribed")
		return nil
	default:
		return fmt.Errorf("unknown newsletter command %q", args[0])
	}
}

func cmdReturns(ctx context.Context, a *app) error {
	list, err := a.returns.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no returns")
		return nil
	}
	for _, ret := range list {
		fmt.Printf("%-38s order=%s %s (%s)\n", ret.ID, ret.OrderID, ret.Status, ret.ReturnType)
	}
	return nil
}
