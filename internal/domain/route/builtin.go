package route

// Route identifiers of the built-in table.
const (
	SystemWhoami          = "system-whoami"
	SystemFindDataObjects = "system-findDataObjects"
	SystemFindJobs        = "system-findJobs"
	SystemFindProjects    = "system-findProjects"

	RecordNew           = "record-new"
	RecordDescribe      = "record-describe"
	RecordGetDetails    = "record-getDetails"
	RecordSetDetails    = "record-setDetails"
	RecordClose         = "record-close"
	RecordAddTags       = "record-addTags"
	RecordRemoveTags    = "record-removeTags"
	RecordSetProperties = "record-setProperties"
	RecordRename        = "record-rename"

	FileNew           = "file-new"
	FileDescribe      = "file-describe"
	FileUpload        = "file-upload"
	FileDownload      = "file-download"
	FileClose         = "file-close"
	FileAddTags       = "file-addTags"
	FileSetProperties = "file-setProperties"

	ProjectNew        = "project-new"
	ProjectDescribe   = "project-describe"
	ProjectListFolder = "project-listFolder"
	ProjectNewFolder  = "project-newFolder"
	ProjectDestroy    = "project-destroy"

	JobNew       = "job-new"
	JobDescribe  = "job-describe"
	JobTerminate = "job-terminate"

	UserDescribe = "user-describe"

	AppNew        = "app-new"
	AppDescribe   = "app-describe"
	AppGetDetails = "app-getDetails"
	AppRun        = "app-run"
	AppInstall    = "app-install"
	AppUninstall  = "app-uninstall"
	AppAddTags    = "app-addTags"
	AppPublish    = "app-publish"
)

// builtin lists the routes known to this client.
var builtin = []Route{ //nolint:gochecknoglobals // read-only route list
	post(SystemWhoami, "/system/whoami", Global, true),
	post(SystemFindDataObjects, "/system/findDataObjects", Global, true),
	post(SystemFindJobs, "/system/findJobs", Global, true),
	post(SystemFindProjects, "/system/findProjects", Global, true),

	post(RecordNew, "/record/new", Global, false),
	post(RecordDescribe, "/{id}/describe", Object, true),
	post(RecordGetDetails, "/{id}/getDetails", Object, true),
	post(RecordSetDetails, "/{id}/setDetails", Object, false),
	post(RecordClose, "/{id}/close", Object, false),
	post(RecordAddTags, "/{id}/addTags", Object, false),
	post(RecordRemoveTags, "/{id}/removeTags", Object, false),
	post(RecordSetProperties, "/{id}/setProperties", Object, false),
	post(RecordRename, "/{id}/rename", Object, false),

	post(FileNew, "/file/new", Global, false),
	post(FileDescribe, "/{id}/describe", Object, true),
	post(FileUpload, "/{id}/upload", Object, true),
	post(FileDownload, "/{id}/download", Object, true),
	post(FileClose, "/{id}/close", Object, false),
	post(FileAddTags, "/{id}/addTags", Object, false),
	post(FileSetProperties, "/{id}/setProperties", Object, false),

	post(ProjectNew, "/project/new", Global, false),
	post(ProjectDescribe, "/{id}/describe", Object, true),
	post(ProjectListFolder, "/{id}/listFolder", Object, true),
	post(ProjectNewFolder, "/{id}/newFolder", Object, false),
	post(ProjectDestroy, "/{id}/destroy", Object, false),

	post(JobNew, "/job/new", Global, false),
	post(JobDescribe, "/{id}/describe", Object, true),
	post(JobTerminate, "/{id}/terminate", Object, false),

	post(UserDescribe, "/{id}/describe", Object, true),

	post(AppNew, "/app/new", Global, false),
	post(AppDescribe, "/{app}/describe", App, true),
	post(AppGetDetails, "/{app}/getDetails", App, true),
	post(AppRun, "/{app}/run", App, false),
	post(AppInstall, "/{app}/install", App, false),
	post(AppUninstall, "/{app}/uninstall", App, false),
	post(AppAddTags, "/{app}/addTags", App, false),
	post(AppPublish, "/{app}/publish", App, false),
}

// Builtin returns a fresh table holding the built-in routes.
func Builtin() *Table {
	t, err := NewTable(builtin...)
	if err != nil {
		panic("route: invalid built-in table: " + err.Error())
	}
	return t
}
