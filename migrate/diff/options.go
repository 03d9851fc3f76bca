package diff

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/satishbabariya/schemadiff/internal/debug"
	"github.com/satishbabariya/schemadiff/migrate/diff/flavour"
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

// options configures one comparison run.
type options struct {
	checkColumnDefOrder bool
	checkDBComment      bool
	suppressSchema      bool
	crossSchema         bool
	flavour             flavour.DifferFlavour
	craft               *craftLoader
	clock               func() time.Time
	log                 *slog.Logger
}

// Option configures a SchemaDiff.
type Option func(*options)

// WithCheckColumnDefOrder reports columns whose definition order changed.
func WithCheckColumnDefOrder(enabled bool) Option {
	return func(o *options) { o.checkColumnDefOrder = enabled }
}

// WithCheckDBComment compares table, column, sequence and procedure comments.
func WithCheckDBComment(enabled bool) Option {
	return func(o *options) { o.checkDBComment = enabled }
}

// WithSuppressSchema ignores schema qualifier changes.
func WithSuppressSchema(enabled bool) Option {
	return func(o *options) { o.suppressSchema = enabled }
}

// WithCrossSchema identifies tables by schema-qualified name.
func WithCrossSchema(enabled bool) Option {
	return func(o *options) { o.crossSchema = enabled }
}

// WithFlavour sets the vendor naming rules.
func WithFlavour(f flavour.DifferFlavour) Option {
	return func(o *options) {
		if f != nil {
			o.flavour = f
		}
	}
}

// WithCraftMetaDir enables the craft comparison over the files of dir.
// A nil naming uses DefaultCraftFileNaming.
func WithCraftMetaDir(fs afero.Fs, dir string, naming CraftFileNaming) Option {
	return func(o *options) {
		if naming == nil {
			naming = DefaultCraftFileNaming{}
		}
		o.craft = &craftLoader{fs: fs, dir: dir, naming: naming}
	}
}

// WithClock sets the source of the diff date.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger of the run.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.log = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		flavour: flavour.NewGenericFlavour(),
		clock:   time.Now,
		log:     debug.Logger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.craft != nil {
		o.craft.log = o.log
	}
	return o
}

func (o *options) tableIdentity(t *introspect.Table) string {
	if o.crossSchema {
		return t.UniqueName()
	}
	return t.Name
}
