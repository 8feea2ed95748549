package sqlinline

const QCreateStoryJobsTable = `--sql 4de1bdbd-c0ab-4160-9536-cf86863620d5
create table if not exists story_jobs (
    id bigserial primary key,
    prompt text not null,
    formats text[] not null default '{}',
    locale text not null default 'en',
    status text not null default 'QUEUED',
    title text not null default '',
    body text not null default '',
    images text[] not null default '{}',
    error_message text not null default '',
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QCreateStoryJobsStatusIndex = `--sql 824f3edd-fb4a-439c-9155-ae4b51e781ce
create index if not exists story_jobs_status_created_at_idx
    on story_jobs (status, created_at);
`

const QEnqueueStoryJob = `--sql 172672bb-a730-4fbb-82de-235b4f767dda
insert into story_jobs (prompt, formats, locale, status)
values ($1, $2, $3, 'QUEUED')
returning id, created_at, updated_at;
`

const QGetStoryJob = `--sql a5f605b5-fd95-478d-b47e-dc9335ebd0d8
select id, prompt, formats, locale, status, title, body, images, error_message, created_at, updated_at
from story_jobs
where id = $1;
`

const QClaimStoryJob = `--sql b21724d9-c89c-464d-8c0c-e9e4409e9bd1
with next_job as (
    select id
    from story_jobs
    where status = 'QUEUED'
    order by created_at asc, id asc
    for update skip locked
    limit 1
),
updated as (
    update story_jobs
    set status = 'RUNNING', updated_at = now()
    where id in (select id from next_job)
    returning id, prompt, formats, locale, status, title, body, images, error_message, created_at, updated_at
)
select * from updated;
`

const QMarkStoryJobSucceeded = `--sql ac298016-12a3-4442-b969-ea6afaae4e50
update story_jobs
set status = 'SUCCEEDED', title = $2, body = $3, images = $4, updated_at = now()
where id = $1;
`

const QMarkStoryJobFailed = `--sql c9f04c1d-6a72-4e74-a529-1e2c6381f7f2
update story_jobs
set status = 'FAILED', error_message = $2, updated_at = now()
where id = $1;
`
