package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Locations     *LocationHandler
	Queue         *QueueHandler
	Notifications *NotificationHandler
	Appointments  *AppointmentHandler
	Staff         *StaffHandler
	Stats         *StatsHandler
	Middleware    []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})
		mux.HandleFunc("/sessions/current", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Auth.DeleteCurrentSession(w, r)
		})
		mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Register(w, r)
		})
	}

	if cfg.Locations != nil {
		mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Locations.List(w, r)
			case http.MethodPost:
				cfg.Locations.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/locations/", func(w http.ResponseWriter, r *http.Request) {
			id, action := splitResourcePath(r.URL.Path, "/locations/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithLocationID(r.Context(), id)
			r = r.WithContext(ctx)
			switch action {
			case "":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Locations.Update(w, r)
			case "toggle":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Locations.ToggleOpen(w, r)
			case "queue":
				if cfg.Queue == nil {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Queue.List(w, r)
			case "queue/serve-next":
				if cfg.Queue == nil {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Queue.ServeNext(w, r)
			case "slots":
				if cfg.Appointments == nil {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Appointments.Slots(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Queue != nil {
		mux.HandleFunc("/queue/entries", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Queue.Join(w, r)
		})
		mux.HandleFunc("/queue/entries/current", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Queue.Current(w, r)
		})
		mux.HandleFunc("/queue/entries/", func(w http.ResponseWriter, r *http.Request) {
			id, action := splitResourcePath(r.URL.Path, "/queue/entries/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithEntryID(r.Context(), id)
			r = r.WithContext(ctx)
			switch action {
			case "":
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				cfg.Queue.Leave(w, r)
			case "remove":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Queue.Remove(w, r)
			case "status":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Queue.SetStatus(w, r)
			case "reorder":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Queue.Reorder(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Notifications != nil {
		mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Notifications.List(w, r)
		})
		mux.HandleFunc("/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Notifications.MarkAllRead(w, r)
		})
		mux.HandleFunc("/notifications/", func(w http.ResponseWriter, r *http.Request) {
			id, action := splitResourcePath(r.URL.Path, "/notifications/")
			if id == "" || action != "read" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			ctx := ContextWithNotificationID(r.Context(), id)
			cfg.Notifications.MarkRead(w, r.WithContext(ctx))
		})
	}

	if cfg.Appointments != nil {
		mux.HandleFunc("/appointments", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Appointments.List(w, r)
			case http.MethodPost:
				cfg.Appointments.Book(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/appointments/", func(w http.ResponseWriter, r *http.Request) {
			id, action := splitResourcePath(r.URL.Path, "/appointments/")
			if id == "" || action != "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			ctx := ContextWithAppointmentID(r.Context(), id)
			cfg.Appointments.Cancel(w, r.WithContext(ctx))
		})
	}

	if cfg.Staff != nil {
		mux.HandleFunc("/staff", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Staff.List(w, r)
			case http.MethodPost:
				cfg.Staff.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/staff/", func(w http.ResponseWriter, r *http.Request) {
			id, action := splitResourcePath(r.URL.Path, "/staff/")
			if id == "" || action != "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			ctx := ContextWithUserID(r.Context(), id)
			cfg.Staff.Delete(w, r.WithContext(ctx))
		})
	}

	if cfg.Stats != nil {
		mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Stats.Usage(w, r)
		})
		mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Stats.History(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// splitResourcePath strips the route prefix and returns the resource ID and
// the remaining action suffix, if any.
func splitResourcePath(path, prefix string) (id, action string) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" {
		return "", ""
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx], strings.TrimSuffix(rest[idx+1:], "/")
	}
	return rest, ""
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
