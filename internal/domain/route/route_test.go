package route_test

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/okian/dxapi/internal/domain/route"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuiltinTable(t *testing.T) {
	Convey("Given the built-in route table", t, func() {
		table := route.Builtin()

		Convey("Then every route validates and names are sorted", func() {
			names := table.Names()
			So(len(names), ShouldEqual, table.Len())
			So(len(names), ShouldBeGreaterThan, 30)
			for i := 1; i < len(names); i++ {
				So(names[i-1] < names[i], ShouldBeTrue)
			}
		})

		Convey("When looking up an object route", func() {
			r, err := table.Lookup(route.RecordDescribe)

			Convey("Then method, scope and path are set", func() {
				So(err, ShouldBeNil)
				So(r.Method, ShouldEqual, http.MethodPost)
				So(r.Scope, ShouldEqual, route.Object)
				So(r.Retryable, ShouldBeTrue)
				So(r.Render("record-0001"), ShouldEqual, "/record-0001/describe")
			})
		})

		Convey("When looking up an app route", func() {
			r, err := table.Lookup(route.AppRun)

			Convey("Then the app locator keeps its alias segment", func() {
				So(err, ShouldBeNil)
				So(r.Scope, ShouldEqual, route.App)
				So(r.Retryable, ShouldBeFalse)
				So(r.Render("app-bwa/1.0.0"), ShouldEqual, "/app-bwa/1.0.0/run")
				So(r.Render("app-B0000000000000000000000X"), ShouldEqual, "/app-B0000000000000000000000X/run")
			})
		})

		Convey("When looking up a global route", func() {
			r, err := table.Lookup(route.SystemWhoami)

			Convey("Then the template is used as-is", func() {
				So(err, ShouldBeNil)
				So(r.Scope, ShouldEqual, route.Global)
				So(r.Render("ignored"), ShouldEqual, "/system/whoami")
			})
		})

		Convey("When looking up an unknown route", func() {
			_, err := table.Lookup("record-explode")

			Convey("Then ErrUnknownRoute is returned", func() {
				So(errors.Is(err, route.ErrUnknownRoute), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "record-explode")
			})
		})

		Convey("When rendering an object ID with reserved characters", func() {
			r, _ := table.Lookup(route.FileDescribe)

			Convey("Then it is escaped as a single path segment", func() {
				So(r.Render("file-a/b"), ShouldEqual, "/file-a%2Fb/describe")
			})
		})
	})
}

func TestTableAdd(t *testing.T) {
	Convey("Given an empty table", t, func() {
		table, err := route.NewTable()
		So(err, ShouldBeNil)

		Convey("When adding a valid route twice", func() {
			r := route.Route{Name: "gtable-get", Method: http.MethodPost, PathTemplate: "/{id}/get", Scope: route.Object}
			So(table.Add(r), ShouldBeNil)
			err := table.Add(r)

			Convey("Then the second add is rejected", func() {
				So(errors.Is(err, route.ErrDuplicateRoute), ShouldBeTrue)
				So(table.Len(), ShouldEqual, 1)
			})
		})

		Convey("When adding malformed routes", func() {
			cases := []route.Route{
				{Name: "", Method: "POST", PathTemplate: "/x", Scope: route.Global},
				{Name: "a", Method: "", PathTemplate: "/x", Scope: route.Global},
				{Name: "b", Method: "POST", PathTemplate: "x", Scope: route.Global},
				{Name: "c", Method: "POST", PathTemplate: "/{id}/x", Scope: route.Global},
				{Name: "d", Method: "POST", PathTemplate: "/x", Scope: route.Object},
				{Name: "e", Method: "POST", PathTemplate: "/{id}/{app}", Scope: route.App},
				{Name: "f", Method: "POST", PathTemplate: "/x", Scope: route.Scope(9)},
			}

			Convey("Then each is rejected with ErrInvalidRoute", func() {
				for _, c := range cases {
					So(errors.Is(table.Add(c), route.ErrInvalidRoute), ShouldBeTrue)
				}
				So(table.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a table is built from duplicate routes", func() {
			r := route.Route{Name: "x", Method: "POST", PathTemplate: "/x", Scope: route.Global}
			_, err := route.NewTable(r, r)

			Convey("Then construction fails", func() {
				So(errors.Is(err, route.ErrDuplicateRoute), ShouldBeTrue)
			})
		})
	})
}

func TestTableConcurrency(t *testing.T) {
	Convey("Given concurrent readers and writers", t, func() {
		table := route.Builtin()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _ = table.Lookup(route.AppRun)
			}()
			go func(i int) {
				defer wg.Done()
				_ = table.Add(route.Route{Name: "custom-" + string(rune('a'+i)), Method: "POST", PathTemplate: "/custom", Scope: route.Global})
			}(i)
		}
		wg.Wait()

		So(table.Len(), ShouldEqual, len(route.Builtin().Names())+20)
	})
}

func TestScopeString(t *testing.T) {
	Convey("Scopes print their names", t, func() {
		So(route.Global.String(), ShouldEqual, "global")
		So(route.Object.String(), ShouldEqual, "object")
		So(route.App.String(), ShouldEqual, "app")
		So(route.Scope(7).String(), ShouldEqual, "scope(7)")
	})
}
