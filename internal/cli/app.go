package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/cache"
	"github.com/jonwraymond/storefront/config"
	"github.com/jonwraymond/storefront/guard"
	"github.com/jonwraymond/storefront/mutation"
	"github.com/jonwraymond/storefront/notify"
	"github.com/jonwraymond/storefront/observe"
	"github.com/jonwraymond/storefront/observe/exporters"
	"github.com/jonwraymond/storefront/secret"
	"github.com/jonwraymond/storefront/session"
	"github.com/jonwraymond/storefront/shop"
)

// app is the wired client: one cache, one session store and REST client
// per actor, and the route guards over them.
type app struct {
	cfg      *config.Config
	obs      observe.Observer
	mw       *observe.Middleware
	logger   observe.Logger
	cache    *cache.Cache
	stores   *session.Stores
	clients  *api.Clients
	router   *guard.Router
	history  *guard.History
	notifier notify.Notifier
	counter  *shop.CartCounter
	redis    *redis.Client
	cancels  []func()
}

func newApp(ctx context.Context, cfg *config.Config, version string, out, errOut io.Writer, useColor bool) (*app, error) {
	exporters.Output = errOut

	obs, err := observe.NewObserver(ctx, cfg.Observe.Observer(version))
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}

	a := &app{
		cfg:     cfg,
		obs:     obs,
		mw:      mw,
		logger:  observe.NewLoggerWithWriter(cfg.Observe.LogLevel, errOut).With(observe.F("service", cfg.Observe.ServiceName)),
		history: &guard.History{},
		counter: shop.NewCartCounter(),
	}
	a.notifier = notify.Multi(notify.NewConsole(out, useColor), notify.NewLogNotifier(a.logger))

	if err := cfg.ResolveSecrets(ctx, secret.Default()); err != nil {
		return nil, err
	}
	backend, err := a.sessionBackend()
	if err != nil {
		return nil, err
	}
	a.stores, err = session.NewStores(ctx, session.WithBackend(backend), session.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("restore sessions: %w", err)
	}

	a.clients, err = api.NewClients(cfg.BaseURL, func(actor session.Actor) []api.Option {
		opts := []api.Option{api.WithExecutor(api.NewExecutor(actor, cfg.Resilience, a.logger))}
		if st, err := a.stores.For(actor); err == nil {
			if id := st.Identity(); id != nil {
				opts = append(opts, api.WithToken(id.Token))
			}
		}
		return opts
	}, api.WithMiddleware(mw), api.WithUserAgent(cfg.UserAgent))
	if err != nil {
		return nil, err
	}

	a.cache = cache.New(
		cache.WithPolicy(cfg.Cache.Policy()),
		cache.WithLogger(a.logger),
		cache.WithMeter(obs.Meter()),
	)

	for _, actor := range session.Actors {
		st, _ := a.stores.For(actor)
		client, _ := a.clients.For(actor)
		a.cancels = append(a.cancels,
			shop.ForgetOnSignOut(st, a.cache),
			st.OnChange(func(ch session.Change) {
				if ch.State == session.Anonymous {
					client.SetToken("")
				} else if ch.Identity != nil && ch.Identity.Token != "" {
					client.SetToken(ch.Identity.Token)
				}
			}),
		)
	}

	a.router, err = guard.NewDefaultRouter(a.stores, a.clients.Profile, mw, a.history)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) sessionBackend() (session.Backend, error) {
	sc := a.cfg.Session
	switch sc.Backend {
	case "memory":
		return session.NewMemoryBackend(), nil
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
		})
		return session.NewRedisBackend(a.redis, sc.Redis.Prefix, sc.Redis.TTL), nil
	default:
		b, err := session.NewFileBackend(sc.Dir)
		if err != nil {
			return nil, fmt.Errorf("session dir: %w", err)
		}
		return b, nil
	}
}

func (a *app) coordinator(actor session.Actor) *mutation.Coordinator {
	return mutation.NewCoordinator(a.cache,
		mutation.WithNotifier(a.notifier),
		mutation.WithMiddleware(a.mw),
		mutation.WithLogger(a.logger),
		mutation.WithActor(string(actor)),
	)
}

func (a *app) shopper() (*shop.ShopperService, error) {
	return shop.NewShopperService(a.clients.Shopper, a.coordinator(session.ActorShopper),
		shop.WithCounter(a.counter), shop.WithVisitor(a.router), shop.WithLogger(a.logger))
}

func (a *app) vendor() (*shop.VendorService, error) {
	return shop.NewVendorService(a.clients.Vendor, a.coordinator(session.ActorVendor), shop.WithLogger(a.logger))
}

func (a *app) admin() (*shop.AdminService, error) {
	return shop.NewAdminService(a.clients.Admin, a.coordinator(session.ActorAdmin), shop.WithLogger(a.logger))
}

// requireSession fails unless actor is signed in, confirming an expired
// session with the server first.
func (a *app) requireSession(ctx context.Context, actor session.Actor) error {
	routes, err := guard.DefaultRoutes(actor)
	if err != nil {
		return err
	}
	d, err := a.router.Resolve(ctx, routes.Protected[0])
	if err != nil {
		return err
	}
	if !d.Allow {
		return fmt.Errorf("%s is not signed in (%s); run: storefront login --as %s", actor, d.Reason, actor)
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	for _, cancel := range a.cancels {
		cancel()
	}
	a.cache.Wait()

	var errs []error
	if err := a.obs.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	return errors.Join(errs...)
}
