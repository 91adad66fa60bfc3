package dxapi

import (
	"context"

	"github.com/okian/dxapi/internal/domain/route"
)

// One method per built-in route. Object routes take the object ID, app
// routes an app hash ID or name plus alias, global routes only a body.

// SystemWhoami calls POST /system/whoami.
func (c *Client) SystemWhoami(ctx context.Context, body any, opts ...CallOption) (any, error) {
	return c.CallGlobal(ctx, route.SystemWhoami, body, opts...)
}

// SystemFindDataObjects calls POST /system/findDataObjects.
func (c *Client) SystemFindDataObjects(ctx context.Context, body any, opts ...CallOption) (any, error) {
	return c.CallGlobal(ctx, route.SystemFindDataObjects, body, opts...)
}

// SystemFindJobs calls POST /system/findJobs.
func (c *Client) SystemFindJobs(ctx context.Context, body any, opts ...CallOption) (any, error) {
	return c.CallGlobal(ctx, route.SystemFindJobs, body, opts...)
}

// SystemFindProjects calls POST /system/findProjects.
func (c *Client) SystemFindProjects(ctx context.Context, body any, opts ...CallOption) (any, error) {
	return c.CallGlobal(ctx, route.SystemFindProjects, body, opts...)
}

// RecordNew calls POST /record/new.
func (c *Client) RecordNew(ctx context.Context, body any, opts ...CallOption) (any, error) {
	return c.CallGlobal(ctx, route.RecordNew, body, opts...)
}

// RecordDescribe calls POST /<objectID>/describe.
func (c *Client) RecordDescribe(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.RecordDescribe, objectID, body, opts...)
}

// RecordGetDetails calls POST /<objectID>/getDetails.
func (c *Client) RecordGetDetails(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.RecordGetDetails, objectID, body, opts...)
}

// RecordSetDetails calls POST /<objectID>/setDetails.
func (c *Client) RecordSetDetails(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.RecordSetDetails, objectID, body, opts...)
}

// RecordClose calls POST /<objectID>/close.
func (c *Client) RecordClose(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.RecordClose, objectID, body, opts...)
}

// RecordAddTags calls POST /<objectID>/addTags.
func (c *Client) RecordAddTags(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.RecordAddTags, objectID, body, opts...)
}

// RecordRemoveTags calls POST /<objectID>/removeTags.
func (c *Client) RecordRemoveTags(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.RecordRemoveTags, objectID, body, opts...)
}

// RecordSetProperties calls POST /<objectID>/setProperties.
func (c *Client) RecordSetProperties(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.RecordSetProperties, objectID, body, opts...)
}

// RecordRename calls POST /<objectID>/rename.
func (c *Client) RecordRename(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.RecordRename, objectID, body, opts...)
}

// FileNew calls POST /file/new.
func (c *Client) FileNew(ctx context.Context, body any, opts ...CallOption) (any, error) {
	return c.CallGlobal(ctx, route.FileNew, body, opts...)
}

// FileDescribe calls POST /<objectID>/describe.
func (c *Client) FileDescribe(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.FileDescribe, objectID, body, opts...)
}

// FileUpload calls POST /<objectID>/upload.
func (c *Client) FileUpload(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.FileUpload, objectID, body, opts...)
}

// FileDownload calls POST /<objectID>/download.
func (c *Client) FileDownload(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.FileDownload, objectID, body, opts...)
}

// FileClose calls POST /<objectID>/close.
func (c *Client) FileClose(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.FileClose, objectID, body, opts...)
}

// FileAddTags calls POST /<objectID>/addTags.
func (c *Client) FileAddTags(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.FileAddTags, objectID, body, opts...)
}

// FileSetProperties calls POST /<objectID>/setProperties.
func (c *Client) FileSetProperties(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.FileSetProperties, objectID, body, opts...)
}

// ProjectNew calls POST /project/new.
func (c *Client) ProjectNew(ctx context.Context, body any, opts ...CallOption) (any, error) {
	return c.CallGlobal(ctx, route.ProjectNew, body, opts...)
}

// ProjectDescribe calls POST /<objectID>/describe.
func (c *Client) ProjectDescribe(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.ProjectDescribe, objectID, body, opts...)
}

// ProjectListFolder calls POST /<objectID>/listFolder.
func (c *Client) ProjectListFolder(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.ProjectListFolder, objectID, body, opts...)
}

// ProjectNewFolder calls POST /<objectID>/newFolder.
func (c *Client) ProjectNewFolder(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.ProjectNewFolder, objectID, body, opts...)
}

// ProjectDestroy calls POST /<objectID>/destroy.
func (c *Client) ProjectDestroy(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.ProjectDestroy, objectID, body, opts...)
}

// JobNew calls POST /job/new.
func (c *Client) JobNew(ctx context.Context, body any, opts ...CallOption) (any, error) {
	return c.CallGlobal(ctx, route.JobNew, body, opts...)
}

// JobDescribe calls POST /<objectID>/describe.
func (c *Client) JobDescribe(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.JobDescribe, objectID, body, opts...)
}

// JobTerminate calls POST /<objectID>/terminate.
func (c *Client) JobTerminate(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.JobTerminate, objectID, body, opts...)
}

// UserDescribe calls POST /<objectID>/describe.
func (c *Client) UserDescribe(ctx context.Context, objectID string, body any, opts ...CallOption) (any, error) {
	return c.CallObject(ctx, route.UserDescribe, objectID, body, opts...)
}

// AppNew calls POST /app/new.
func (c *Client) AppNew(ctx context.Context, body any, opts ...CallOption) (any, error) {
	return c.CallGlobal(ctx, route.AppNew, body, opts...)
}

// AppDescribe calls POST /<app>/describe.
func (c *Client) AppDescribe(ctx context.Context, appRef, alias string, body any, opts ...CallOption) (any, error) {
	return c.CallApp(ctx, route.AppDescribe, appRef, alias, body, opts...)
}

// AppGetDetails calls POST /<app>/getDetails.
func (c *Client) AppGetDetails(ctx context.Context, appRef, alias string, body any, opts ...CallOption) (any, error) {
	return c.CallApp(ctx, route.AppGetDetails, appRef, alias, body, opts...)
}

// AppRun calls POST /<app>/run.
func (c *Client) AppRun(ctx context.Context, appRef, alias string, body any, opts ...CallOption) (any, error) {
	return c.CallApp(ctx, route.AppRun, appRef, alias, body, opts...)
}

// AppInstall calls POST /<app>/install.
func (c *Client) AppInstall(ctx context.Context, appRef, alias string, body any, opts ...CallOption) (any, error) {
	return c.CallApp(ctx, route.AppInstall, appRef, alias, body, opts...)
}

// AppUninstall calls POST /<app>/uninstall.
func (c *Client) AppUninstall(ctx context.Context, appRef, alias string, body any, opts ...CallOption) (any, error) {
	return c.CallApp(ctx, route.AppUninstall, appRef, alias, body, opts...)
}

// AppAddTags calls POST /<app>/addTags.
func (c *Client) AppAddTags(ctx context.Context, appRef, alias string, body any, opts ...CallOption) (any, error) {
	return c.CallApp(ctx, route.AppAddTags, appRef, alias, body, opts...)
}

// AppPublish calls POST /<app>/publish.
func (c *Client) AppPublish(ctx context.Context, appRef, alias string, body any, opts ...CallOption) (any, error) {
	return c.CallApp(ctx, route.AppPublish, appRef, alias, body, opts...)
}
